package media

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"
)

type Kind int

const (
	// Embedded sources carry their bytes inline as a data: URL.
	Embedded Kind = iota + 1
	// Ephemeral sources are blob: handles that only the live page can read.
	Ephemeral
	// Remote sources are plain http(s) addresses.
	Remote
)

func (k Kind) String() string {
	switch k {
	case Embedded:
		return "embedded"
	case Ephemeral:
		return "ephemeral"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// ephemeralExt is used for blob: images: the page gives no reliable format.
const ephemeralExt = "png"

const remoteFallbackExt = "jpg"

// Reference points at one image as the chat page exposes it.
type Reference struct {
	Kind   Kind
	Source string
}

// ParseReference classifies an image source attribute.
func ParseReference(src string) (Reference, error) {
	src = strings.TrimSpace(src)
	lower := strings.ToLower(src)

	switch {
	case strings.HasPrefix(lower, "data:"):
		return Reference{Kind: Embedded, Source: src}, nil
	case strings.HasPrefix(lower, "blob:"):
		return Reference{Kind: Ephemeral, Source: src}, nil
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return Reference{Kind: Remote, Source: src}, nil
	default:
		return Reference{}, fmt.Errorf("unsupported image source %q", truncate(src, 64))
	}
}

// Format is the file extension the reference will be saved with.
func (r Reference) Format() string {
	switch r.Kind {
	case Embedded:
		mime, _, _ := strings.Cut(r.Source[len("data:"):], ",")
		mime, _, _ = strings.Cut(mime, ";")
		_, sub, ok := strings.Cut(mime, "/")
		if !ok || sub == "" {
			return "bin"
		}
		return strings.ToLower(sub)
	case Ephemeral:
		return ephemeralExt
	case Remote:
		return remoteExt(r.Source)
	default:
		return ""
	}
}

// Animated reports whether the reference is a looping animation, which the
// archive does not keep.
func (r Reference) Animated() bool {
	return r.Format() == "gif"
}

func remoteExt(src string) string {
	p := src
	if u, err := url.Parse(src); err == nil {
		p = u.Path
	} else if before, _, found := strings.Cut(src, "?"); found {
		p = before
	}

	ext := strings.TrimPrefix(path.Ext(path.Base(p)), ".")
	if ext == "" {
		return remoteFallbackExt
	}
	return strings.ToLower(ext)
}

// decodeDataURL returns the payload of a data: URL.
func decodeDataURL(src string) ([]byte, error) {
	header, payload, ok := strings.Cut(src, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL: missing comma")
	}

	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return []byte(data), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
