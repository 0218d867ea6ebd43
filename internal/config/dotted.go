package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const blacklistPrefix = "blacklist."

// ApplyDotted sets values addressed by dotted keys such as
// "redirect.enable.trailingSlash" or "blacklist./neos.*". Everything after
// "blacklist." is the pattern, dots included.
func (c *Config) ApplyDotted(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.setDotted(key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// ParseAssignment splits "key=value".
func ParseAssignment(raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid assignment %q, want key=value", raw)
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) setDotted(key, value string) error {
	if pattern, ok := strings.CutPrefix(key, blacklistPrefix); ok {
		if pattern == "" {
			return fmt.Errorf("%s: pattern is empty", key)
		}
		active, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if c.Blacklist == nil {
			c.Blacklist = map[string]bool{}
		}
		c.Blacklist[pattern] = active
		return nil
	}

	switch key {
	case "redirect.enable.trailingSlash":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Redirect.Enable.TrailingSlash = Bool(v)
	case "redirect.enable.toLowerCase":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Redirect.Enable.ToLowerCase = Bool(v)
	case "redirect.statusCode":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Redirect.StatusCode = Int(v)
	case "redirect.lowerCaseMode":
		c.Redirect.LowerCaseMode = value
	case "server.listen":
		c.Server.Listen = value
	case "server.trustForwardedProto":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Server.TrustForwardedProto = v
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "logging.decisionLog":
		c.Logging.DecisionLog = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
