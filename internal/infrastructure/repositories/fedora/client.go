// Package fedora implements the object store ports over the Fedora
// repository REST API.
package fedora

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"islandora-handle-backend/internal/domain/ports"
)

// Config holds configuration for the Fedora client
type Config struct {
	BaseURL        string        `yaml:"base_url" env:"FEDORA_BASE_URL"`
	Username       string        `yaml:"username" env:"FEDORA_USERNAME"`
	Password       string        `yaml:"password" env:"FEDORA_PASSWORD"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"FEDORA_REQUEST_TIMEOUT"`
}

// DefaultConfig returns default configuration for the Fedora client
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8080/fedora",
		RequestTimeout: 30 * time.Second,
	}
}

// Store resolves pids against Fedora
type Store struct {
	http   *http.Client
	config Config
}

// Compile-time check that Store implements ports.ObjectStore
var _ ports.ObjectStore = (*Store)(nil)

// NewStore creates a new Fedora-backed object store
func NewStore(config Config) *Store {
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	return &Store{
		http:   &http.Client{},
		config: config,
	}
}

// fedoraModelPrefix decorates every entry of a profile's model list.
const fedoraModelPrefix = "info:fedora/"

type objectProfile struct {
	XMLName xml.Name `xml:"objectProfile"`
	Models  []string `xml:"objModels>model"`
}

type datastreamList struct {
	XMLName     xml.Name `xml:"objectDatastreams"`
	Datastreams []struct {
		DSID string `xml:"dsid,attr"`
	} `xml:"datastream"`
}

// Get fetches the object profile and datastream listing for a pid.
func (s *Store) Get(ctx context.Context, pid string) (ports.RepositoryObject, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	var profile objectProfile
	if err := s.getXML(ctx, s.objectURL(pid)+"?format=xml", &profile); err != nil {
		return nil, err
	}

	var listing datastreamList
	if err := s.getXML(ctx, s.objectURL(pid)+"/datastreams?format=xml", &listing); err != nil {
		return nil, err
	}

	obj := &object{store: s, pid: pid, streams: make(map[string]struct{}, len(listing.Datastreams))}
	for _, m := range profile.Models {
		model := strings.TrimPrefix(m, fedoraModelPrefix)
		// The base object model applies to everything and never carries
		// a handle association.
		if strings.HasPrefix(model, "fedora-system:") {
			continue
		}
		obj.cmodels = append(obj.cmodels, model)
	}
	for _, ds := range listing.Datastreams {
		obj.streams[ds.DSID] = struct{}{}
	}
	return obj, nil
}

func (s *Store) getXML(ctx context.Context, rawURL string, out interface{}) error {
	resp, err := s.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ports.ErrNotFound
	default:
		return errors.Errorf("fedora returned status %d for %s", resp.StatusCode, rawURL)
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode fedora response from %s", rawURL)
	}
	return nil
}

func (s *Store) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "build fedora request")
	}
	if s.config.Username != "" {
		req.SetBasicAuth(s.config.Username, s.config.Password)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fedora %s %s", method, rawURL)
	}
	return resp, nil
}

func (s *Store) objectURL(pid string) string {
	return fmt.Sprintf("%s/objects/%s",
		strings.TrimRight(s.config.BaseURL, "/"),
		url.PathEscape(pid))
}

func (s *Store) datastreamURL(pid, dsid string) string {
	return fmt.Sprintf("%s/datastreams/%s", s.objectURL(pid), url.PathEscape(dsid))
}

// object is a Fedora-backed repository object. The datastream listing is a
// point-in-time snapshot taken by Get; content reads and writes go back to
// Fedora on every call.
type object struct {
	store   *Store
	pid     string
	cmodels []string
	streams map[string]struct{}
}

func (o *object) ID() string {
	return o.pid
}

func (o *object) ContentModels() []string {
	out := make([]string, len(o.cmodels))
	copy(out, o.cmodels)
	return out
}

func (o *object) Has(dsid string) bool {
	_, ok := o.streams[dsid]
	return ok
}

func (o *object) Datastream(dsid string) (ports.Datastream, error) {
	if !o.Has(dsid) {
		return nil, ports.ErrDatastreamNotFound
	}
	return &datastream{obj: o, id: dsid}, nil
}

type datastream struct {
	obj *object
	id  string
}

func (d *datastream) ID() string {
	return d.id
}

func (d *datastream) Content(ctx context.Context) ([]byte, error) {
	s := d.obj.store
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := s.do(ctx, http.MethodGet, s.datastreamURL(d.obj.pid, d.id)+"/content", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ports.ErrDatastreamNotFound
	default:
		return nil, errors.Errorf("fedora returned status %d reading %s/%s", resp.StatusCode, d.obj.pid, d.id)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read datastream %s/%s", d.obj.pid, d.id)
	}
	return content, nil
}

func (d *datastream) SetContent(ctx context.Context, content []byte) error {
	s := d.obj.store
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := s.do(ctx, http.MethodPut, s.datastreamURL(d.obj.pid, d.id), bytes.NewReader(content), "text/xml")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.Errorf("fedora returned status %d writing %s/%s", resp.StatusCode, d.obj.pid, d.id)
	}
	return nil
}
