package kv

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/client"
	"github.com/ValentinKolb/hKV/rpc/common"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// valueView is the printable form of a value
type valueView struct {
	Kind  string `json:"kind" yaml:"kind"`
	Value any    `json:"value" yaml:"value"`
}

type pairView struct {
	Key string `json:"key" yaml:"key"`
	valueView `yaml:",inline"`
}

// responseView is the printable form of a response
type responseView struct {
	Status  uint32      `json:"status" yaml:"status"`
	Message string      `json:"message,omitempty" yaml:"message,omitempty"`
	Values  []valueView `json:"values,omitempty" yaml:"values,omitempty"`
	Pairs   []pairView  `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

func newValueView(v store.Value) valueView {
	return valueView{Kind: v.Kind().String(), Value: v.Interface()}
}

func newResponseView(resp *common.CommandResponse) responseView {
	view := responseView{Status: resp.Status, Message: resp.Message}
	for _, v := range resp.Values {
		view.Values = append(view.Values, newValueView(v))
	}
	for _, p := range sortedPairs(resp.Pairs) {
		view.Pairs = append(view.Pairs, pairView{Key: p.Key, valueView: newValueView(p.Value)})
	}
	if resp.Pairs != nil && view.Pairs == nil {
		view.Pairs = []pairView{}
	}
	return view
}

// sortedPairs returns the pairs ordered by key, the server does not guarantee an order
func sortedPairs(pairs []store.Kvpair) []store.Kvpair {
	sorted := append([]store.Kvpair(nil), pairs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}

// writeResponse prints a response in the given format.
// Responses with an error status are returned as *client.ResponseError after they were printed
// (json, yaml) or instead of being printed (text).
func writeResponse(w io.Writer, msgType common.MessageType, resp *common.CommandResponse, format string) error {
	var respErr error
	if !resp.IsSuccess() {
		respErr = &client.ResponseError{Status: resp.Status, Message: resp.Message}
	}

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newResponseView(resp)); err != nil {
			return err
		}
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newResponseView(resp)); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	case outputText, "":
		if respErr != nil {
			return respErr
		}
		writeText(w, msgType, resp)
	default:
		return fmt.Errorf("invalid output format %s. must be one of text, json, yaml", format)
	}
	return respErr
}

// writeText prints a successful response for humans
func writeText(w io.Writer, msgType common.MessageType, resp *common.CommandResponse) {
	if msgType == common.MsgTHgetall {
		if len(resp.Pairs) == 0 {
			fmt.Fprintln(w, "(empty table)")
			return
		}
		for _, p := range sortedPairs(resp.Pairs) {
			fmt.Fprintf(w, "%s = %s (%s)\n", p.Key, p.Value, p.Value.Kind())
		}
		return
	}

	for _, v := range resp.Values {
		switch {
		case v.IsNone():
			fmt.Fprintln(w, "(none)")
		case msgType == common.MsgTHexist:
			fmt.Fprintln(w, v)
		default:
			fmt.Fprintf(w, "%s (%s)\n", v, v.Kind())
		}
	}
}
