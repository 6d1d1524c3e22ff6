package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

func decodeCUE(data []byte, name string) (*Document, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("report is not concrete: %v", err)}
	}
	if !value.LookupPath(cue.ParsePath("project")).Exists() {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: "report has no project"}
	}

	var doc Document
	if err := value.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("decoding report: %v", err)}
	}
	return &doc, nil
}

func decodeYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeInvalid, Message: "report is empty"}
		}
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("decoding report: %v", err)}
	}
	if doc.Project.Key == "" && doc.Project.Type == "" {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: "report has no project"}
	}
	return &doc, nil
}
