// Package ffmpeg wraps the ffmpeg CLI for decrypting provider audio
// containers and packaging them as M4B audiobooks. Stream mapping keeps the
// source audio untouched; decryption credentials arrive as input arguments
// supplied by the caller.
package ffmpeg
