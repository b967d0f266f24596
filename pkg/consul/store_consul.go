//go:build consul

package consul

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"market-cutover/pkg/model"
)

// Store is a Consul KV-backed implementation of store.Store.
type Store struct {
	cli    *consulapi.Client
	prefix string
}

const (
	kvDir    = "kv/"
	auditDir = "audit/"
)

func NewStore(addr, prefix string) (*Store, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	if prefix == "" {
		prefix = "market-cutover"
	}
	return &Store{cli: cli, prefix: strings.TrimSuffix(prefix, "/") + "/"}, nil
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	kv, _, err := s.cli.KV().Get(s.prefix+kvDir+key, nil)
	if err != nil {
		return nil, false, err
	}
	if kv == nil {
		return nil, false, nil
	}
	return kv.Value, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	_, err := s.cli.KV().Put(&consulapi.KVPair{Key: s.prefix + kvDir + key, Value: value}, nil)
	return err
}

func (s *Store) Remove(key string) error {
	_, err := s.cli.KV().Delete(s.prefix+kvDir+key, nil)
	return err
}

// Ping reports whether the agent has an elected leader.
func (s *Store) Ping() error {
	leader, err := s.cli.Status().Leader()
	if err != nil {
		return err
	}
	if leader == "" {
		return fmt.Errorf("consul has no leader")
	}
	return nil
}

func (s *Store) AppendAudit(entry model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	// zero-padded so lexical order of the listing is chronological
	key := fmt.Sprintf("%s%s%020d-%s", s.prefix, auditDir, entry.Timestamp.UnixNano(), entry.Action)
	_, err = s.cli.KV().Put(&consulapi.KVPair{Key: key, Value: b}, nil)
	return err
}

func (s *Store) ListAudit(limit int) ([]model.AuditEntry, error) {
	pairs, _, err := s.cli.KV().List(s.prefix+auditDir, nil)
	if err != nil {
		return nil, err
	}
	var out []model.AuditEntry
	for _, p := range pairs {
		var e model.AuditEntry
		if err := json.Unmarshal(p.Value, &e); err == nil {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
