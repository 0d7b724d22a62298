// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package checkpoint names, retains and selects model checkpoints written by
// the training harness into global_args.savedir.
package checkpoint

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Extension is the file extension of every checkpoint.
const Extension = ".pt"

// ErrBadName is returned by ParseName for files that are not checkpoints.
var ErrBadName = errors.New("not a checkpoint name")

var nameRE = regexp.MustCompile(`^model_epoch=(\d+)_loss=([^_]+?)(?:_(.+))?\.pt$`)

// Info describes one checkpoint file.
type Info struct {
	Path  string
	Epoch int
	Loss  float64
	Tag   string
}

// Name returns the base name of the checkpoint.
func (i Info) Name() string { return filepath.Base(i.Path) }

// FormatName returns the path of the checkpoint for epoch and loss in dir.
// The loss is written with eight decimals. An empty tag adds no suffix.
func FormatName(dir string, epoch int, loss float64, tag string) string {
	name := fmt.Sprintf("model_epoch=%d_loss=%s", epoch, formatLoss(loss))
	if tag != "" {
		name += "_" + tag
	}
	return filepath.Join(dir, name+Extension)
}

func formatLoss(loss float64) string {
	switch {
	case math.IsInf(loss, 1):
		return "inf"
	case math.IsInf(loss, -1):
		return "-inf"
	case math.IsNaN(loss):
		return "nan"
	}
	return strconv.FormatFloat(loss, 'f', 8, 64)
}

// ParseName parses a checkpoint path produced by FormatName.
func ParseName(path string) (Info, error) {
	base := filepath.Base(path)
	m := nameRE.FindStringSubmatch(base)
	if m == nil {
		return Info{}, fmt.Errorf("%w: %s", ErrBadName, base)
	}
	epoch, err := strconv.Atoi(m[1])
	if err != nil {
		return Info{}, fmt.Errorf("%w: epoch %q", ErrBadName, m[1])
	}
	loss, err := parseLoss(m[2])
	if err != nil {
		return Info{}, fmt.Errorf("%w: loss %q", ErrBadName, m[2])
	}
	return Info{Path: path, Epoch: epoch, Loss: loss, Tag: m[3]}, nil
}

func parseLoss(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
