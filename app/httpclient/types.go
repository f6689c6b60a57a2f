package httpclient

import "time"

// Options control a single fetch. Zero values fall back to the client
// defaults, except UseCache which must be requested explicitly.
type Options struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	MaxRedirects   int
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Headers        map[string]string
	UseCache       bool
	CacheTTL       time.Duration
}

// FetchResult is the normalized response envelope. OK reports whether a
// response was received at all; callers decide what status range is
// acceptable. Transport failures set OK=false, Status=0 and Err.
type FetchResult struct {
	OK          bool
	Status      int
	Headers     map[string]string
	Body        []byte
	FinalURL    string
	FromCache   bool
	Revalidated bool
	Err         string
}

func failure(err error) FetchResult {
	return FetchResult{OK: false, Status: 0, Err: err.Error()}
}
