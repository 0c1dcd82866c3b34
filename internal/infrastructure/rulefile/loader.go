// Package rulefile carga las definiciones de comandos, contadores y raids
// desde el directorio de datos.
package rulefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"alertBot/internal/domain"
)

const (
	CommandsDir = "commands"
	RaidersDir  = "raiders"
	CountersDir = "counters"
	AudioDir    = "audio"
	ImagesDir   = "images"

	NotificationsFile  = "notifications.json"
	LegacyCountersFile = "counters.json"
)

var kindByDir = map[string]domain.RuleKind{
	CommandsDir: domain.RuleCommand,
	RaidersDir:  domain.RuleRaidGreeting,
	CountersDir: domain.RuleCounter,
}

type Loader struct {
	root string
}

func New(root string) *Loader {
	return &Loader{root: root}
}

func (l *Loader) Path(elem ...string) string {
	return filepath.Join(append([]string{l.root}, elem...)...)
}

// EnsureLayout crea los directorios que falten. No toca los existentes.
func (l *Loader) EnsureLayout() error {
	for _, dir := range []string{"", CommandsDir, RaidersDir, CountersDir, AudioDir, ImagesDir} {
		if err := os.MkdirAll(l.Path(dir), 0o755); err != nil {
			return fmt.Errorf("rulefile: mkdir %s: %w", dir, err)
		}
	}
	return nil
}

// LoadRules lee los tres directorios. Los archivos mal formados se devuelven
// en errs y no detienen la carga del resto.
func (l *Loader) LoadRules(filter string) (rules []*domain.Rule, errs []error) {
	for _, dir := range []string{CommandsDir, RaidersDir, CountersDir} {
		r, e := l.loadDir(dir, filter)
		rules = append(rules, r...)
		errs = append(errs, e...)
	}
	return rules, errs
}

func (l *Loader) loadDir(dir, filter string) ([]*domain.Rule, []error) {
	entries, err := os.ReadDir(l.Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("rulefile: read dir %s: %w", dir, err)}
	}

	var (
		rules []*domain.Rule
		errs  []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !isRuleFile(entry.Name()) {
			continue
		}
		source := filepath.Join(dir, entry.Name())
		rule, err := l.loadFile(source, kindByDir[dir])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if filter != "" && rule.Tag != "" && rule.Tag != filter {
			slog.Debug("rulefile: filtered out", "source", source, "filter", rule.Tag)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, errs
}

func isRuleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (l *Loader) loadFile(source string, kind domain.RuleKind) (*domain.Rule, error) {
	raw, err := os.ReadFile(l.Path(source))
	if err != nil {
		return nil, fmt.Errorf("rulefile: read %s: %w", source, err)
	}

	fields := map[string]any{}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		err = json.Unmarshal(stripBOM(raw), &fields)
	} else {
		err = yaml.Unmarshal(raw, &fields)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedRule, source, err)
	}

	rule, err := ruleFromFields(kind, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedRule, source, err)
	}
	rule.Source = source
	if rule.Name == "" {
		// saludos genéricos sin user ni command se nombran por el archivo
		rule.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	return rule, nil
}

func stripBOM(raw []byte) []byte {
	return bytes.TrimPrefix(raw, []byte("\ufeff"))
}

// LoadAlerts lee notifications.json; si no existe lo escribe con defaults.
func (l *Loader) LoadAlerts(defaults domain.AlertConfig) (domain.AlertConfig, error) {
	path := l.Path(NotificationsFile)

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeJSON(path, alertsToFile(defaults)); err != nil {
			return defaults, err
		}
		slog.Info("rulefile: wrote default notifications", "path", path)
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("rulefile: read notifications: %w", err)
	}

	var file alertsFile
	if err := json.Unmarshal(stripBOM(raw), &file); err != nil {
		return defaults, fmt.Errorf("rulefile: parse notifications: %w", err)
	}
	return file.toConfig()
}

// LoadLegacyCounters lee el snapshot viejo en counters.json. ok es false si
// el archivo no existe.
func (l *Loader) LoadLegacyCounters() (snapshot map[string]int64, ok bool, err error) {
	raw, err := os.ReadFile(l.Path(LegacyCountersFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rulefile: read counters: %w", err)
	}
	if err := json.Unmarshal(stripBOM(raw), &snapshot); err != nil {
		return nil, false, fmt.Errorf("rulefile: parse counters: %w", err)
	}
	return snapshot, true, nil
}

// Images lista los archivos del directorio de imágenes, ordenados.
func (l *Loader) Images() ([]string, error) {
	entries, err := os.ReadDir(l.Path(ImagesDir))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

type alertsFile struct {
	Subs *domain.NotificationSpec           `json:"subs,omitempty"`
	Bits map[string]domain.NotificationSpec `json:"bits,omitempty"`
}

func alertsToFile(cfg domain.AlertConfig) alertsFile {
	file := alertsFile{Subs: cfg.Subs, Bits: make(map[string]domain.NotificationSpec, len(cfg.Bits))}
	for _, b := range cfg.Bits {
		file.Bits[strconv.FormatInt(b.Threshold, 10)] = b.Spec
	}
	return file
}

func (f alertsFile) toConfig() (domain.AlertConfig, error) {
	cfg := domain.AlertConfig{Subs: f.Subs}
	for key, spec := range f.Bits {
		threshold, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return domain.AlertConfig{}, fmt.Errorf("rulefile: bits threshold %q: %w", key, domain.ErrInvalidValue)
		}
		cfg.Bits = append(cfg.Bits, domain.TierBucket{Threshold: threshold, Spec: spec})
	}
	sort.Slice(cfg.Bits, func(i, j int) bool { return cfg.Bits[i].Threshold > cfg.Bits[j].Threshold })
	return cfg, nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("rulefile: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("rulefile: write %s: %w", filepath.Base(path), err)
	}
	return nil
}
