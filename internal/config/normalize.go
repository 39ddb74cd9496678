package config

import "strings"

// normalize expands and cleans path-valued fields in place.
func (c *Config) normalize() error {
	expanded := make([]string, 0, len(c.WatchDirectories))
	for _, dir := range c.WatchDirectories {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		abs, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		expanded = append(expanded, abs)
	}
	c.WatchDirectories = expanded

	for _, field := range []*string{&c.Recovery.Directory, &c.Logging.Directory} {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		abs, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = abs
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
