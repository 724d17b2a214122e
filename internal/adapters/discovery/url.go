package discovery

import (
	"context"
	"mime"
	"net/url"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"golang.org/x/time/rate"
)

// acceptedContentTypes are the HEAD content types that identify an archive.
var acceptedContentTypes = map[string]struct{}{
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/octet-stream":     {},
}

// urlScanner walks HTTP directory indexes.
type urlScanner struct {
	fetcher ports.Fetcher
	heads   *lru.Cache[string, ports.ArtifactInfo]
	limiter *rate.Limiter
	logger  ports.Logger
}

func (s *urlScanner) scan(ctx context.Context, base string) ([]domain.Version, error) {
	return s.scanIndex(ctx, base, "", true)
}

func (s *urlScanner) scanIndex(ctx context.Context, base, filter string, top bool) ([]domain.Version, error) {
	links, err := s.fetcher.Index(ctx, base)
	if err != nil {
		return nil, err
	}

	var found []domain.Version
	for _, link := range links {
		name := linkName(link)
		if name == "" {
			continue
		}

		if strings.HasSuffix(link, "/") {
			if !top {
				continue
			}
			if m := majorMinorDir.FindStringSubmatch(name); m != nil {
				nested, err := s.scanIndex(ctx, link, m[1]+"."+m[2], false)
				if err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					s.logger.Warn("skipping unreadable version index " + link)
					continue
				}
				found = append(found, nested...)
			}
			continue
		}

		v, ok := domain.FindVersion(strings.TrimSuffix(name, domain.ArchiveExt))
		if !ok || (filter != "" && v.MajorMinor() != filter) {
			continue
		}

		accepted, err := s.isArchive(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("ignoring " + link + ": " + err.Error())
			continue
		}
		if accepted {
			found = append(found, v.WithLocation(link))
		}
	}
	return found, nil
}

// isArchive probes link with HEAD, pacing requests and caching answers.
func (s *urlScanner) isArchive(ctx context.Context, link string) (bool, error) {
	info, ok := s.heads.Get(link)
	if !ok {
		if err := s.limiter.Wait(ctx); err != nil {
			return false, err
		}
		var err error
		info, err = s.fetcher.Head(ctx, link)
		if err != nil {
			return false, err
		}
		s.heads.Add(link, info)
	}

	mediaType, _, err := mime.ParseMediaType(info.ContentType)
	if err != nil {
		return false, nil
	}
	_, accepted := acceptedContentTypes[strings.ToLower(mediaType)]
	return accepted, nil
}

func linkName(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	name, err := url.PathUnescape(path.Base(strings.TrimSuffix(u.Path, "/")))
	if err != nil || name == "/" || name == "." {
		return ""
	}
	return name
}
