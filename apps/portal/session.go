package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/services/lmsapi"
)

// sessionStore keeps the logged-in user between portal runs.
type sessionStore struct {
	path string
}

// Load returns nil when nobody is logged in.
func (s sessionStore) Load() (*lmsapi.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading session file")
	}
	var sess lmsapi.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "decoding session file")
	}
	return &sess, nil
}

func (s sessionStore) Save(sess lmsapi.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(os.WriteFile(s.path, data, 0600), "writing session file")
}

func (s sessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
