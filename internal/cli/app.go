package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/medreport/internal/compose"
	"github.com/roach88/medreport/internal/config"
	"github.com/roach88/medreport/internal/logo"
	"github.com/roach88/medreport/internal/store"
	"github.com/roach88/medreport/internal/upload/pinata"
	"github.com/roach88/medreport/internal/upload/s3"
)

// app holds what every command builds from the global flags.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	loader *Loader
}

// newApp loads configuration and builds the logger and loader. Overrides run
// after the file and environment are applied and before validation.
func newApp(opts *RootOptions, logOut io.Writer, overrides ...func(*config.Config)) (*app, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer, err := config.NewLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	loader, err := NewLoader()
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, closer: closer, loader: loader}, nil
}

// Close releases the log file, if any.
func (a *app) Close() error {
	return a.closer.Close()
}

func (a *app) assembler() *compose.Assembler {
	r := a.cfg.Report
	return compose.NewAssembler(compose.Options{
		NewSurface: compose.PDFSurfaces(r.Compress),
		Logo:       a.logoSource(),
		Logger:     a.logger,
		Kind:       r.Kind,
		Title:      r.Title,
		Brand:      r.Brand,
		VerifyURL:  r.VerifyURL,
		Watermark:  r.Watermark,
	})
}

// logoSource returns nil when the logo is disabled so the brand label is drawn.
func (a *app) logoSource() compose.LogoSource {
	l := a.cfg.Logo
	switch {
	case l.Disabled:
		return nil
	case l.Path != "":
		return logo.NewCached(logo.FileSource{Path: l.Path})
	case l.URL != "":
		return logo.NewCached(logo.NewHTTPSource(l.URL, l.Timeout))
	default:
		return nil
	}
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.Storage.Database)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.Storage.Database, err)
	}
	return st, nil
}

// publisher builds a Publisher for the configured backend. Records always go
// to st; with the local backend the artifacts do too.
func (a *app) publisher(st *store.Store) (*compose.Publisher, error) {
	var up compose.Uploader
	sc := a.cfg.Storage
	switch sc.Backend {
	case config.BackendLocal:
		up = st
	case config.BackendPinata:
		up = pinata.New(sc.Pinata.Endpoint, sc.Pinata.JWT, sc.Pinata.Timeout)
	case config.BackendS3:
		u, err := s3.New(s3.Options{
			Endpoint: sc.S3.Endpoint,
			Region:   sc.S3.Region,
			Key:      sc.S3.Key,
			Secret:   sc.S3.Secret,
			Bucket:   sc.S3.Bucket,
			Prefix:   sc.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 backend: %w", err)
		}
		up = u
	default:
		return nil, errors.New("unknown storage backend " + sc.Backend)
	}
	return &compose.Publisher{Uploader: up, Records: st, Logger: a.logger}, nil
}
