package syncer

import (
	"context"
	"log/slog"

	"tasksheet/internal/config"
	"tasksheet/internal/transport"
	"tasksheet/internal/transport/scriptproxy"
	"tasksheet/internal/transport/sheetsapi"
)

// SelectTransport picks the transport by configuration precedence:
// a script URL wins, then a sheet ID with a signed-in session, then
// none. A sheet ID without a session is a blocking condition and
// returns transport.ErrAuthRequired rather than silently idling.
func SelectTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (transport.Transport, Method, error) {
	if cfg.ScriptURL != "" {
		tr, err := scriptproxy.New(cfg.ScriptURL, logger)
		if err != nil {
			return nil, MethodNone, err
		}
		return tr, MethodScript, nil
	}

	if cfg.SheetID != "" {
		if !cfg.HasToken() || !cfg.HasOAuthClient() {
			return nil, MethodNone, transport.ErrAuthRequired
		}
		tr, err := sheetsapi.New(ctx, cfg, logger)
		if err != nil {
			return nil, MethodNone, err
		}
		return tr, MethodSheets, nil
	}

	return nil, MethodNone, nil
}

// TestConnection exercises the active transport's connection check.
func (s *Syncer) TestConnection(ctx context.Context) error {
	s.mu.Lock()
	tr := s.tr
	s.mu.Unlock()
	if tr == nil {
		return transport.ErrNoTarget
	}
	return tr.TestConnection(ctx)
}

// Method returns the active transport method.
func (s *Syncer) Method() Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Method
}
