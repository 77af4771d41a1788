// Package dbc provides the symbol database that names bus messages.
package dbc

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tOgg1/busview/internal/models"
)

// ErrSymbolFile is returned when a symbol file cannot be parsed.
var ErrSymbolFile = errors.New("invalid symbol file")

// Database is the read side of a symbol database.
type Database interface {
	// Messages returns every declared message keyed by address.
	Messages() map[uint32]*models.MessageDecl

	// Msg returns the declaration for an identity, or nil.
	Msg(id models.MessageID) *models.MessageDecl
}

// symbolFile is the on-disk YAML layout.
type symbolFile struct {
	Version  int                  `yaml:"version"`
	Messages []models.MessageDecl `yaml:"messages"`
}

// Store is an in-memory Database that can be reloaded from a YAML file.
type Store struct {
	path     string
	messages map[uint32]*models.MessageDecl
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{messages: make(map[uint32]*models.MessageDecl)}
}

// Open loads a store from path.
func Open(path string) (*Store, error) {
	s := NewStore()
	s.path = strings.TrimSpace(path)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file backing the store, if any.
func (s *Store) Path() string { return s.path }

// Reload re-reads the backing file. A store without a file is left unchanged.
// On error the previous declarations are kept.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read symbol file: %w", err)
	}
	msgs, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	s.Replace(msgs)
	return nil
}

// Parse decodes YAML symbol declarations.
func Parse(data []byte) ([]models.MessageDecl, error) {
	var file symbolFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSymbolFile, err)
	}

	seen := make(map[uint32]bool, len(file.Messages))
	validation := &models.ValidationErrors{}
	for i := range file.Messages {
		msg := &file.Messages[i]
		field := fmt.Sprintf("messages[%d]", i)
		if seen[msg.Address] {
			validation.AddMessage(field+".address", fmt.Sprintf("duplicate address 0x%X", msg.Address))
		}
		seen[msg.Address] = true
		validation.Add(field, msg.Validate())
	}
	if err := validation.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSymbolFile, err)
	}
	return file.Messages, nil
}

// Replace swaps all declarations.
func (s *Store) Replace(msgs []models.MessageDecl) {
	next := make(map[uint32]*models.MessageDecl, len(msgs))
	for i := range msgs {
		msg := msgs[i]
		next[msg.Address] = &msg
	}
	s.messages = next
}

// Messages implements Database.
func (s *Store) Messages() map[uint32]*models.MessageDecl {
	return s.messages
}

// Msg implements Database. Declarations apply to every bus.
func (s *Store) Msg(id models.MessageID) *models.MessageDecl {
	return s.messages[id.Address]
}

// SortedAddresses returns declared addresses in ascending order.
func (s *Store) SortedAddresses() []uint32 {
	addrs := make([]uint32, 0, len(s.messages))
	for addr := range s.messages {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

var _ Database = (*Store)(nil)
