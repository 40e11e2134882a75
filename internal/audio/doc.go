// Package audio plays synthesized speech through the system audio device
// using the oto/v3 library. Playback is utterance oriented: Play blocks until
// the PCM buffer has been heard, and can be paused, resumed or canceled.
package audio
