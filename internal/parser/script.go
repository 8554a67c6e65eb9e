package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScriptRule matches text with a regular expression. Named groups become
// params; the reply may reference them as {name}.
type ScriptRule struct {
	Pattern string            `yaml:"pattern"`
	Action  string            `yaml:"action"`
	Reply   string            `yaml:"reply"`
	Params  map[string]string `yaml:"params"`
	// Incomplete marks the rule as a slot-filling prompt.
	Incomplete bool `yaml:"incomplete"`

	re *regexp.Regexp
}

// ScriptFile is the YAML document read by LoadScript.
type ScriptFile struct {
	Rules    []ScriptRule `yaml:"rules"`
	Fallback string       `yaml:"fallback"`
}

// Script is a local, rule-based parser for development and tests.
type Script struct {
	rules    []ScriptRule
	fallback string
	logger   *slog.Logger
}

// LoadScript reads rules from a YAML file.
func LoadScript(log *slog.Logger, path string) (*Script, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("script parser requires script_path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(log, raw)
}

// ParseScript compiles rules from YAML source.
func ParseScript(log *slog.Logger, raw []byte) (*Script, error) {
	var file ScriptFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	for i := range file.Rules {
		re, err := regexp.Compile("(?i)" + file.Rules[i].Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		file.Rules[i].re = re
	}
	return &Script{
		rules:    file.Rules,
		fallback: file.Fallback,
		logger:   log.With(slog.String("parser", BackendScript)),
	}, nil
}

func (s *Script) Parse(_ context.Context, text, sessionID string) (Intent, error) {
	text = strings.TrimSpace(text)
	for _, rule := range s.rules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		params := make(map[string]string, len(rule.Params)+len(m))
		for k, v := range rule.Params {
			params[k] = v
		}
		for i, name := range rule.re.SubexpNames() {
			if name != "" && i < len(m) {
				params[name] = strings.TrimSpace(m[i])
			}
		}
		reply := rule.Reply
		for k, v := range params {
			reply = strings.ReplaceAll(reply, "{"+k+"}", v)
		}
		s.logger.Debug("rule matched", slog.String("session_id", sessionID), slog.String("action", rule.Action))
		return Intent{
			Text:                reply,
			Action:              rule.Action,
			SlotFillingComplete: !rule.Incomplete,
			Params:              params,
			Contexts:            map[string]map[string]string{},
		}, nil
	}
	return Intent{
		Text:                s.fallback,
		SlotFillingComplete: true,
		Params:              map[string]string{},
		Contexts:            map[string]map[string]string{},
	}, nil
}
