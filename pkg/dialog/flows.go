package dialog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// flowDocument is the YAML layout of declarative dialogs:
//
//	dialogs:
//	  - name: survey
//	    ttl: 10m
//	    steps:
//	      - name: ask
//	        sendMessage: What is your name?
//	      - name: bye
//	        sendMessage:
//	          text: <b>Thanks!</b>
//	          parse_mode: HTML
//	        control:
//	          complete: true
type flowDocument struct {
	Dialogs []flowDialog `yaml:"dialogs"`
}

type flowDialog struct {
	Name  string `yaml:"name"`
	TTL   string `yaml:"ttl"`
	Steps []any  `yaml:"steps"`
}

// LoadFlows parses declarative dialogs. Steps are decoded with DecodeStep and every
// definition is validated; bare steps are rejected since a file cannot carry handlers.
func LoadFlows(r io.Reader) ([]*Definition, error) {
	var doc flowDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse flows: %w", err)
	}

	defs := make([]*Definition, 0, len(doc.Dialogs))
	var errs []error
	for i, fd := range doc.Dialogs {
		def, err := fd.definition()
		if err != nil {
			errs = append(errs, fmt.Errorf("dialog #%d %q: %w", i, fd.Name, err))
			continue
		}
		defs = append(defs, def)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return defs, nil
}

// LoadFlowsFile reads flows from path.
func LoadFlowsFile(path string) ([]*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flows: %w", err)
	}
	defer f.Close()
	return LoadFlows(f)
}

func (fd flowDialog) definition() (*Definition, error) {
	def := &Definition{Name: fd.Name}
	if fd.TTL != "" {
		ttl, err := time.ParseDuration(fd.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid ttl %q: %w", fd.TTL, err)
		}
		def.TTL = ttl
	}

	for _, raw := range fd.Steps {
		step, err := DecodeStep(raw)
		if err != nil {
			return nil, err
		}
		def.Steps = append(def.Steps, step)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}
