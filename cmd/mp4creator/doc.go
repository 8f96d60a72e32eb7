// Command mp4creator turns annotated narration scripts into narrated MP4
// videos with burned-in subtitles, or into MP3 and SRT files alone.
//
// Typical use:
//
//	mp4creator convert script.txt -o intro.mp4
//	mp4creator convert --sheet-id 42 --upload
//	mp4creator audio script.txt
//	mp4creator merge final.mp4 part1.mp4 part2.mp4
//
// Configuration lives in ~/.config/mp4creator/config.toml (see
// "mp4creator config init"); a .env file in the working directory is loaded
// first so API keys can stay out of the config file.
package main
