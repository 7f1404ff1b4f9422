package output

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// HTTPContainer selects the POST body shape (spec §4.6).
type HTTPContainer int

const (
	ContainerAISCatcher HTTPContainer = iota
	ContainerAirframes
	ContainerAPRS
	ContainerNMEA
)

// HTTPPosterOptions configures a periodic-drain HTTP POST streamer (spec
// §4.6).
type HTTPPosterOptions struct {
	URL       string
	Interval  time.Duration
	Container HTTPContainer
	Gzip      bool
	StationID int32
	Lat, Lon  float64
	PeerJSON  PeerJSONConfig
	Logger    zerolog.Logger
	Client    *http.Client
	Now       func() time.Time
}

// HTTPPoster accumulates accepted messages in memory and POSTs them as a
// batch every Interval, per spec §4.6. Each POST opens its own
// connection; the streamer is not persistent.
type HTTPPoster struct {
	opts   HTTPPosterOptions
	filter *Filter

	mu          sync.Mutex
	pending     []*ais.Message
	pendingTags []stream.Tag

	stop chan struct{}
}

// NewHTTPPoster creates an HTTP POSTer with the given filter.
func NewHTTPPoster(opts HTTPPosterOptions, filter *Filter) *HTTPPoster {
	if filter == nil {
		filter = NewFilter()
	}
	if opts.Interval == 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HTTPPoster{opts: opts, filter: filter, stop: make(chan struct{})}
}

// Accept queues msg for the next drain, subject to the filter. tag carries
// the per-frame signal level/ppm/station metadata (spec §6) that the
// eventual batch body needs to populate "signalpower"/"ppm"/"station_id"/"ipv4".
func (p *HTTPPoster) Accept(msg *ais.Message, tag stream.Tag, isOwn bool) {
	if !p.filter.Include(msg, isOwn, p.opts.Now()) {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, msg)
	p.pendingTags = append(p.pendingTags, tag)
	p.mu.Unlock()
}

// Run drains the pending queue on the configured interval until Close is
// called. Intended to run in its own goroutine (spec §5: "one background
// thread for the HTTP POSTer's drain timer").
func (p *HTTPPoster) Run() {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.drain()
		case <-p.stop:
			return
		}
	}
}

// Close stops Run's drain loop.
func (p *HTTPPoster) Close() { close(p.stop) }

func (p *HTTPPoster) drain() {
	p.mu.Lock()
	batch := p.pending
	tags := p.pendingTags
	p.pending = nil
	p.pendingTags = nil
	p.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	body, contentType, err := p.buildBody(batch, tags)
	if err != nil {
		p.opts.Logger.Error().Err(err).Msg("http-poster: build body failed")
		return
	}
	if p.opts.Gzip {
		body, err = gzipBytes(body)
		if err != nil {
			p.opts.Logger.Error().Err(err).Msg("http-poster: gzip failed")
			return
		}
	}

	req, err := http.NewRequest(http.MethodPost, p.opts.URL, bytes.NewReader(body))
	if err != nil {
		p.opts.Logger.Error().Err(err).Msg("http-poster: build request failed")
		return
	}
	req.Header.Set("Content-Type", contentType)
	if p.opts.Gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := p.opts.Client.Do(req)
	if err != nil {
		p.opts.Logger.Error().Err(err).Msg("http-poster: request failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.opts.Logger.Error().Int("status", resp.StatusCode).Msg("http-poster: non-2xx response")
	}
}

func (p *HTTPPoster) buildBody(batch []*ais.Message, tags []stream.Tag) ([]byte, string, error) {
	switch p.opts.Container {
	case ContainerAISCatcher, ContainerAirframes:
		body, err := BuildAircatcherBody(batch, tags, p.opts.PeerJSON, p.opts.StationID, p.opts.Lat, p.opts.Lon, p.opts.Now())
		return body, "application/json", err
	case ContainerAPRS:
		jsonais, err := BuildAPRSBody(batch, tags, p.opts.PeerJSON)
		if err != nil {
			return nil, "", err
		}
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if err := w.WriteField("jsonais", string(jsonais)); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), w.FormDataContentType(), nil
	case ContainerNMEA:
		return BuildNMEABody(batch), "text/plain", nil
	default:
		return nil, "", nil
	}
}

func gzipBytes(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(in); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
