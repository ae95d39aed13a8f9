// Package session remembers a viewer's last selected tournament and team across runs.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/spf13/viper"
)

// Preferences is the small key-value slot set a viewer persists. An empty string means
// "nothing selected".
type Preferences interface {
	Tournament() string
	Team() string
	SetTournament(id string) error
	SetTeam(name string) error
	Clear() error
}

// Memory keeps preferences for the life of the process.
type Memory struct {
	mu         sync.RWMutex
	tournament string
	team       string
}

var _ Preferences = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Tournament() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tournament
}

func (m *Memory) Team() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.team
}

func (m *Memory) SetTournament(id string) error {
	m.mu.Lock()
	m.tournament = id
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetTeam(name string) error {
	m.mu.Lock()
	m.team = name
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	m.tournament, m.team = "", ""
	m.mu.Unlock()
	return nil
}

const (
	keyTournament = "selected_tournament"
	keyTeam       = "focused_team"
)

// File persists preferences in a YAML file through viper. Every change is written
// through synchronously.
type File struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

var _ Preferences = (*File)(nil)

// OpenFile loads preferences from path. A missing file starts empty and is created on
// the first change.
func OpenFile(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var missing viper.ConfigFileNotFoundError
		if !errors.As(err, &missing) {
			return nil, fmt.Errorf("read preferences %s: %w", path, err)
		}
	}
	return &File{path: path, v: v}, nil
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) Tournament() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v.GetString(keyTournament)
}

func (f *File) Team() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v.GetString(keyTeam)
}

func (f *File) SetTournament(id string) error { return f.set(map[string]string{keyTournament: id}) }

func (f *File) SetTeam(name string) error { return f.set(map[string]string{keyTeam: name}) }

func (f *File) Clear() error {
	return f.set(map[string]string{keyTournament: "", keyTeam: ""})
}

func (f *File) set(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, val := range values {
		f.v.Set(k, val)
	}
	if err := f.v.WriteConfigAs(f.path); err != nil {
		return fmt.Errorf("write preferences %s: %w", f.path, err)
	}
	return nil
}

