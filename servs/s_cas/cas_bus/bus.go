// servs/s_cas/cas_bus/bus.go

// Package cas_bus serves a Store as NATS request/reply endpoints.
package cas_bus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/config"
	recoverpkg "github.com/rskv-p/cas/recover"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
)

// Endpoint names, appended to the subject prefix.
const (
	SubjectQuery  = "query"
	SubjectInsert = "insert"
	SubjectDelete = "delete"
	SubjectStats  = "stats"
	SubjectInfo   = "info"
	SubjectMerge  = "merge"

	QueueGroup = "cas"
)

// Reply wraps every response.
type Reply struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type Service struct {
	store cas_serv.Store
	cfg   config.NATSSettings
	log   zerolog.Logger

	ns   *server.Server
	nc   *nats.Conn
	subs []*nats.Subscription
}

func New(store cas_serv.Store, cfg config.NATSSettings, log zerolog.Logger) *Service {
	if cfg.Prefix == "" {
		cfg.Prefix = "cas"
	}
	return &Service{store: store, cfg: cfg, log: log}
}

// Start optionally boots an embedded server, connects and subscribes.
func (s *Service) Start() error {
	url := s.cfg.URL
	if s.cfg.Embedded {
		ns, err := server.NewServer(&server.Options{
			Host:   s.cfg.Host,
			Port:   s.cfg.Port,
			NoSigs: true,
			NoLog:  true,
		})
		if err != nil {
			return fmt.Errorf("nats-server init: %w", err)
		}
		go ns.Start()
		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("nats-server not ready")
		}
		s.ns = ns
		url = ns.ClientURL()
	}

	nc, err := nats.Connect(url, nats.Name("cas-"+nuid.Next()))
	if err != nil {
		s.shutdownServer()
		return fmt.Errorf("nats connect: %w", err)
	}
	s.nc = nc

	handlers := map[string]func([]byte) (any, error){
		SubjectQuery:  s.query,
		SubjectInsert: s.insert,
		SubjectDelete: s.delete,
		SubjectStats:  func([]byte) (any, error) { return s.store.Stats(), nil },
		SubjectInfo:   func([]byte) (any, error) { return s.store.Info(), nil },
		SubjectMerge: func([]byte) (any, error) {
			s.store.Merge()
			return s.store.Info(), nil
		},
	}
	for name, h := range handlers {
		subject := s.cfg.Prefix + "." + name
		sub, err := nc.QueueSubscribe(subject, QueueGroup, s.wrap(subject, h))
		if err != nil {
			_ = s.Stop()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	if err := nc.Flush(); err != nil {
		_ = s.Stop()
		return err
	}
	s.log.Info().Str("url", url).Str("prefix", s.cfg.Prefix).Bool("embedded", s.ns != nil).Msg("bus service started")
	return nil
}

// ClientURL returns the URL clients should dial.
func (s *Service) ClientURL() string {
	if s.ns != nil {
		return s.ns.ClientURL()
	}
	return s.cfg.URL
}

// Stop drains the subscriptions and shuts the embedded server down.
func (s *Service) Stop() error {
	var err error
	for _, sub := range s.subs {
		if e := sub.Unsubscribe(); e != nil && err == nil {
			err = e
		}
	}
	s.subs = nil
	if s.nc != nil {
		s.nc.Close()
		s.nc = nil
	}
	s.shutdownServer()
	return err
}

func (s *Service) shutdownServer() {
	if s.ns != nil {
		s.ns.Shutdown()
		s.ns.WaitForShutdown()
		s.ns = nil
	}
}

//---------------------
// Handlers
//---------------------

func (s *Service) wrap(subject string, h func([]byte) (any, error)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		start := time.Now()
		var rep Reply
		var out any
		err := recoverpkg.Func(s.log, "bus", subject, func() (err error) {
			out, err = h(msg.Data)
			return err
		})
		if err == nil {
			rep.Data, err = json.Marshal(out)
		}
		if err != nil {
			rep.Error = err.Error()
		}
		b, _ := json.Marshal(rep)
		if msg.Reply != "" {
			if err := msg.Respond(b); err != nil {
				s.log.Warn().Err(err).Str("subject", subject).Msg("respond failed")
			}
		}
		s.log.Debug().
			Str("subject", subject).
			Bool("ok", rep.Error == "").
			Dur("took", time.Since(start)).
			Msg("bus request")
	}
}

// decode reads a JSON payload loosely: numbers may arrive as strings
// and unknown fields are rejected.
func decode(data []byte, v any) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("bad request: %w", err)
	}
	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	if err := md.Decode(raw); err != nil {
		return fmt.Errorf("bad request: %w", err)
	}
	return nil
}

func (s *Service) query(data []byte) (any, error) {
	var req cas_serv.QueryRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.store.Query(req)
}

func (s *Service) insert(data []byte) (any, error) {
	var rec cas_serv.Record
	if err := decode(data, &rec); err != nil {
		return nil, err
	}
	return s.store.Insert(rec)
}

func (s *Service) delete(data []byte) (any, error) {
	var rec cas_serv.Record
	if err := decode(data, &rec); err != nil {
		return nil, err
	}
	return s.store.Delete(rec)
}
