// Package mediafmt maps user-facing format aliases to ffmpeg muxer names.
package mediafmt

import "strings"

type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
	KindSubtitle Kind = "subtitle"
)

type Format struct {
	Alias string
	Muxer string
	Desc  string
	Kind  Kind
}

var videoFormats = []Format{
	{Alias: "mp4", Muxer: "mp4", Desc: "MPEG-4 Part 14", Kind: KindVideo},
	{Alias: "mkv", Muxer: "matroska", Desc: "Matroska Multimedia Container", Kind: KindVideo},
	{Alias: "avi", Muxer: "avi", Desc: "Audio Video Interleaved", Kind: KindVideo},
	{Alias: "mov", Muxer: "mov", Desc: "QuickTime Movie", Kind: KindVideo},
	{Alias: "flv", Muxer: "flv", Desc: "Flash Video", Kind: KindVideo},
	{Alias: "webm", Muxer: "webm", Desc: "WebM Video", Kind: KindVideo},
	{Alias: "mpeg", Muxer: "mpeg", Desc: "MPEG Program Stream", Kind: KindVideo},
	{Alias: "mpg", Muxer: "mpeg", Desc: "MPEG Program Stream", Kind: KindVideo},
	{Alias: "ts", Muxer: "mpegts", Desc: "MPEG Transport Stream", Kind: KindVideo},
	{Alias: "m2ts", Muxer: "mpegts", Desc: "MPEG-2 Transport Stream", Kind: KindVideo},
	{Alias: "ogv", Muxer: "ogg", Desc: "Ogg Video", Kind: KindVideo},
	{Alias: "3gp", Muxer: "3gp", Desc: "3GPP Multimedia Container", Kind: KindVideo},
	{Alias: "3g2", Muxer: "3g2", Desc: "3GPP2 Multimedia Container", Kind: KindVideo},
	{Alias: "vob", Muxer: "vob", Desc: "DVD Video Object", Kind: KindVideo},
	{Alias: "f4v", Muxer: "f4v", Desc: "Flash Video F4V", Kind: KindVideo},
	{Alias: "wmv", Muxer: "asf", Desc: "Windows Media Video", Kind: KindVideo},
	{Alias: "rm", Muxer: "rm", Desc: "RealMedia", Kind: KindVideo},
	{Alias: "rmvb", Muxer: "rm", Desc: "RealMedia Variable Bitrate", Kind: KindVideo},
}

var audioFormats = []Format{
	{Alias: "mp3", Muxer: "mp3", Desc: "MPEG Audio Layer III", Kind: KindAudio},
	{Alias: "wav", Muxer: "wav", Desc: "Waveform Audio File Format", Kind: KindAudio},
	{Alias: "flac", Muxer: "flac", Desc: "Free Lossless Audio Codec", Kind: KindAudio},
	{Alias: "aac", Muxer: "aac", Desc: "Advanced Audio Coding", Kind: KindAudio},
	{Alias: "m4a", Muxer: "ipod", Desc: "MPEG-4 Audio", Kind: KindAudio},
	{Alias: "ogg", Muxer: "ogg", Desc: "Ogg Vorbis/Opus", Kind: KindAudio},
	{Alias: "oga", Muxer: "ogg", Desc: "Ogg Audio", Kind: KindAudio},
	{Alias: "opus", Muxer: "ogg", Desc: "Opus in Ogg", Kind: KindAudio},
	{Alias: "wma", Muxer: "asf", Desc: "Windows Media Audio", Kind: KindAudio},
	{Alias: "alac", Muxer: "ipod", Desc: "Apple Lossless Audio Codec", Kind: KindAudio},
	{Alias: "amr", Muxer: "amr", Desc: "Adaptive Multi-Rate Audio", Kind: KindAudio},
	{Alias: "ac3", Muxer: "ac3", Desc: "Dolby Digital AC-3", Kind: KindAudio},
	{Alias: "dts", Muxer: "dts", Desc: "Digital Theater Systems", Kind: KindAudio},
	{Alias: "eac3", Muxer: "eac3", Desc: "Enhanced AC-3", Kind: KindAudio},
}

var imageFormats = []Format{
	{Alias: "jpg", Muxer: "mjpeg", Desc: "JPEG Image", Kind: KindImage},
	{Alias: "jpeg", Muxer: "mjpeg", Desc: "JPEG Image", Kind: KindImage},
	{Alias: "png", Muxer: "png", Desc: "Portable Network Graphics", Kind: KindImage},
	{Alias: "webp", Muxer: "webp", Desc: "WebP Image", Kind: KindImage},
	{Alias: "gif", Muxer: "gif", Desc: "Graphics Interchange Format", Kind: KindImage},
	{Alias: "bmp", Muxer: "bmp", Desc: "Bitmap Image", Kind: KindImage},
	{Alias: "tif", Muxer: "tiff", Desc: "Tagged Image File Format", Kind: KindImage},
	{Alias: "tiff", Muxer: "tiff", Desc: "Tagged Image File Format", Kind: KindImage},
	{Alias: "ico", Muxer: "ico", Desc: "Windows Icon", Kind: KindImage},
	{Alias: "svg", Muxer: "svg", Desc: "Scalable Vector Graphics", Kind: KindImage},
	{Alias: "heif", Muxer: "heif", Desc: "High Efficiency Image Format", Kind: KindImage},
	{Alias: "heic", Muxer: "hevc", Desc: "High Efficiency Image Coding", Kind: KindImage},
	{Alias: "jp2", Muxer: "jpeg2000", Desc: "JPEG 2000", Kind: KindImage},
	{Alias: "j2k", Muxer: "jpeg2000", Desc: "JPEG 2000", Kind: KindImage},
	{Alias: "jxl", Muxer: "jpegxl", Desc: "JPEG XL", Kind: KindImage},
}

var subtitleFormats = []Format{
	{Alias: "srt", Muxer: "srt", Desc: "SubRip Subtitle", Kind: KindSubtitle},
	{Alias: "ass", Muxer: "ass", Desc: "Advanced SubStation Alpha", Kind: KindSubtitle},
	{Alias: "ssa", Muxer: "ass", Desc: "SubStation Alpha", Kind: KindSubtitle},
	{Alias: "vtt", Muxer: "webvtt", Desc: "WebVTT Subtitle", Kind: KindSubtitle},
	{Alias: "sub", Muxer: "microdvd", Desc: "MicroDVD Subtitle", Kind: KindSubtitle},
	{Alias: "idx", Muxer: "microdvd", Desc: "MicroDVD Index", Kind: KindSubtitle},
	{Alias: "mks", Muxer: "matroska", Desc: "Matroska Subtitles", Kind: KindSubtitle},
}

// All returns every known format, videos first, matching the order formats
// are listed to users.
func All() []Format {
	out := make([]Format, 0, len(videoFormats)+len(audioFormats)+len(imageFormats)+len(subtitleFormats))
	out = append(out, videoFormats...)
	out = append(out, audioFormats...)
	out = append(out, imageFormats...)
	out = append(out, subtitleFormats...)
	return out
}

func ByKind(kind Kind) []Format {
	switch kind {
	case KindVideo:
		return append([]Format(nil), videoFormats...)
	case KindAudio:
		return append([]Format(nil), audioFormats...)
	case KindImage:
		return append([]Format(nil), imageFormats...)
	case KindSubtitle:
		return append([]Format(nil), subtitleFormats...)
	default:
		return nil
	}
}

// Lookup resolves a format alias (or a bare muxer name) to its table entry.
// The first match wins, so ambiguous muxer names like "ogg" resolve to the
// earliest listed alias.
func Lookup(alias string) (Format, bool) {
	needle := strings.ToLower(strings.TrimSpace(alias))
	if needle == "" {
		return Format{}, false
	}
	for _, f := range All() {
		if f.Alias == needle {
			return f, true
		}
	}
	for _, f := range All() {
		if f.Muxer == needle {
			return f, true
		}
	}
	return Format{}, false
}

// IsAllowed reports whether alias names a format of one of the given kinds.
// With no kinds it only checks that the alias is known.
func IsAllowed(alias string, kinds ...Kind) bool {
	f, ok := Lookup(alias)
	if !ok {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if f.Kind == k {
			return true
		}
	}
	return false
}

func Aliases(kinds ...Kind) []string {
	out := make([]string, 0, 32)
	for _, f := range All() {
		if len(kinds) == 0 {
			out = append(out, f.Alias)
			continue
		}
		for _, k := range kinds {
			if f.Kind == k {
				out = append(out, f.Alias)
				break
			}
		}
	}
	return out
}
