// Package mediaconcat joins stored clips into a single video with the ffmpeg
// concat demuxer in stream-copy mode.
package mediaconcat
