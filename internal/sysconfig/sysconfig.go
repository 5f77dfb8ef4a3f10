// Package sysconfig holds the storefront's configuration slice: vip level,
// system parameters and banners per placement.
//
// Reducers here are pure. Writes to durable storage are returned as Effect
// values for the caller to execute after committing the new Slice.
package sysconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/storefront/internal/cache"
	"github.com/five82/storefront/internal/mall"
)

// Recognised system parameter keys.
const (
	KeyRechargeAmountMin   = "recharge_amount_min"
	KeyAllowSelfCollection = "ALLOW_SELF_COLLECTION"
	KeyMallName            = "mallName"
	KeyIndexVideo1         = "index_video_1"
	KeyIndexVideo2         = "index_video_2"
)

// MirroredKeys are written to durable storage whenever they arrive so a cold
// start can show them before the network answers.
var MirroredKeys = []string{KeyRechargeAmountMin, KeyAllowSelfCollection}

// Params is the typed view of the system parameter list.
type Params struct {
	RechargeAmountMin   mall.Fen
	AllowSelfCollection bool
	MallName            string
	IndexVideo1         string // short cover video
	IndexVideo2         string // long cover video
	// Extra keeps parameters without a typed field.
	Extra map[string]string
}

// Value returns the raw string for any parameter key.
func (p Params) Value(key string) (string, bool) {
	switch key {
	case KeyRechargeAmountMin:
		return formatFen(p.RechargeAmountMin), true
	case KeyAllowSelfCollection:
		return strconv.FormatBool(p.AllowSelfCollection), true
	case KeyMallName:
		return p.MallName, p.MallName != ""
	case KeyIndexVideo1:
		return p.IndexVideo1, p.IndexVideo1 != ""
	case KeyIndexVideo2:
		return p.IndexVideo2, p.IndexVideo2 != ""
	}
	v, ok := p.Extra[key]
	return v, ok
}

// Slice is the configuration state.
type Slice struct {
	VipLevel int
	Params   Params
	Banners  cache.Collection[mall.Banner]
}

// EffectKind names a side effect requested by a reducer.
type EffectKind int

const (
	// EffectPersistScalar asks for Key=Value to be written to local storage.
	EffectPersistScalar EffectKind = iota + 1
)

// Effect is a side effect the dispatcher runs after a state commit.
type Effect struct {
	Kind  EffectKind
	Key   string
	Value string
}

// MalformedConfigError reports a system parameter payload of the wrong shape.
type MalformedConfigError struct {
	Reason string
	Err    error
}

func (e *MalformedConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed system parameters: %s: %v", e.Reason, e.Err)
	}
	return "malformed system parameters: " + e.Reason
}

func (e *MalformedConfigError) Unwrap() error { return e.Err }

// ScalarReader reads durable local storage.
type ScalarReader interface {
	Read(key string) (string, bool)
}

type rawParameter struct {
	Key   *string         `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ApplySystemParameters replaces the parameter set with the one in raw, which
// must be a JSON array of {key, value} objects; null counts as an empty list.
// Only a payload of the wrong shape is rejected: prev is then returned
// untouched together with a *MalformedConfigError.
func ApplySystemParameters(prev Slice, raw json.RawMessage) (Slice, []Effect, error) {
	params, err := decodeParameters(raw)
	if err != nil {
		return prev, nil, err
	}

	var effects []Effect
	for _, p := range params {
		if isMirrored(p.Key) {
			effects = append(effects, Effect{Kind: EffectPersistScalar, Key: p.Key, Value: p.Value})
		}
	}

	next := prev
	next.Params = fold(Params{
		RechargeAmountMin:   prev.Params.RechargeAmountMin,
		AllowSelfCollection: prev.Params.AllowSelfCollection,
	}, params)
	return next, effects, nil
}

// FoldParameters builds typed Params from an already decoded list. Values for
// typed keys that fail to parse are kept in Extra.
func FoldParameters(list []mall.Parameter) Params {
	return fold(Params{}, list)
}

// ApplyBanners stores the banners for a placement.
func ApplyBanners(prev Slice, placement string, items []mall.Banner) Slice {
	next := prev
	next.Banners = prev.Banners.Put(placement, items)
	return next
}

// ApplyVipLevel replaces the vip level.
func ApplyVipLevel(prev Slice, level int) Slice {
	next := prev
	next.VipLevel = level
	return next
}

// Hydrate seeds the mirrored parameters from local storage. Missing or
// unreadable values keep their defaults.
func Hydrate(prev Slice, reader ScalarReader) Slice {
	if reader == nil {
		return prev
	}
	next := prev
	if v, ok := reader.Read(KeyRechargeAmountMin); ok {
		if amount, err := parseFen(v); err == nil {
			next.Params.RechargeAmountMin = amount
		}
	}
	if v, ok := reader.Read(KeyAllowSelfCollection); ok {
		next.Params.AllowSelfCollection = parseFlag(v)
	}
	return next
}

func decodeParameters(raw json.RawMessage) ([]mall.Parameter, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, &MalformedConfigError{Reason: "expected a list of key/value pairs"}
	}
	var entries []rawParameter
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, &MalformedConfigError{Reason: "decode list", Err: err}
	}
	out := make([]mall.Parameter, 0, len(entries))
	for i, e := range entries {
		if e.Key == nil || strings.TrimSpace(*e.Key) == "" {
			return nil, &MalformedConfigError{Reason: fmt.Sprintf("entry %d has no key", i)}
		}
		value, err := scalarString(e.Value)
		if err != nil {
			return nil, &MalformedConfigError{Reason: fmt.Sprintf("entry %q", *e.Key), Err: err}
		}
		out = append(out, mall.Parameter{Key: *e.Key, Value: value})
	}
	return out, nil
}

// fold applies list on top of base. The mirrored values of base survive for
// keys that are absent from list or whose value does not parse.
func fold(base Params, list []mall.Parameter) Params {
	out := base
	out.Extra = nil
	for _, p := range list {
		if err := out.set(p.Key, p.Value); err != nil {
			out.setExtra(p.Key, p.Value)
		}
	}
	return out
}

func (p *Params) set(key, value string) error {
	switch key {
	case KeyRechargeAmountMin:
		amount, err := parseFen(value)
		if err != nil {
			return err
		}
		p.RechargeAmountMin = amount
	case KeyAllowSelfCollection:
		p.AllowSelfCollection = parseFlag(value)
	case KeyMallName:
		p.MallName = value
	case KeyIndexVideo1:
		p.IndexVideo1 = value
	case KeyIndexVideo2:
		p.IndexVideo2 = value
	default:
		p.setExtra(key, value)
	}
	return nil
}

func (p *Params) setExtra(key, value string) {
	if p.Extra == nil {
		p.Extra = make(map[string]string)
	}
	p.Extra[key] = value
}

func isMirrored(key string) bool {
	for _, k := range MirroredKeys {
		if k == key {
			return true
		}
	}
	return false
}

// scalarString flattens a JSON scalar to its string form.
func scalarString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("value is not a scalar")
	default:
		return string(trimmed), nil
	}
}

func parseFen(value string) (mall.Fen, error) {
	var f mall.Fen
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	if err := f.UnmarshalJSON([]byte(strings.TrimSpace(value))); err != nil {
		return 0, err
	}
	return f, nil
}

func formatFen(f mall.Fen) string {
	raw, _ := f.MarshalJSON()
	return string(raw)
}

// parseFlag treats "1", "true", "yes" and "on" as set.
func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
