// Package registry discovers trained weight files on disk.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"ttsd/internal/common/fsutil"
	"ttsd/pkg/types"
)

// Weight directories of the v2ProPlus model family, relative to the
// weights root.
const (
	DecoderDir = "GPT_weights_v2ProPlus"
	VocoderDir = "SoVITS_weights_v2ProPlus"
)

// Pretrained base weights, listed when present.
var (
	PretrainedDecoder = filepath.Join("GPT_SoVITS", "pretrained_models", "s1v3.ckpt")
	PretrainedVocoder = filepath.Join("GPT_SoVITS", "pretrained_models", "v2Pro", "s2Gv2ProPlus.pth")
)

// Scan lists decoder (*.ckpt) and vocoder (*.pth) weights under root,
// each list in natural order. Missing directories yield empty lists.
func Scan(root string) (types.ModelsResponse, error) {
	base, err := fsutil.ExpandHome(root)
	if err != nil {
		return types.ModelsResponse{}, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return types.ModelsResponse{}, fmt.Errorf("abs path: %w", err)
	}
	dec, err := scanKind(abs, PretrainedDecoder, DecoderDir, ".ckpt")
	if err != nil {
		return types.ModelsResponse{}, err
	}
	voc, err := scanKind(abs, PretrainedVocoder, VocoderDir, ".pth")
	if err != nil {
		return types.ModelsResponse{}, err
	}
	return types.ModelsResponse{Decoders: dec, Vocoders: voc}, nil
}

func scanKind(root, pretrained, dir, ext string) ([]types.WeightFile, error) {
	out := []types.WeightFile{}
	if fi, err := os.Stat(filepath.Join(root, pretrained)); err == nil && !fi.IsDir() {
		out = append(out, types.WeightFile{Name: filepath.ToSlash(pretrained), Path: filepath.Join(root, pretrained), SizeBytes: fi.Size()})
	}
	entries, err := os.ReadDir(filepath.Join(root, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		out = append(out, types.WeightFile{
			Name:      dir + "/" + e.Name(),
			Path:      filepath.Join(root, dir, e.Name()),
			SizeBytes: size,
		})
	}
	slices.SortStableFunc(out, func(a, b types.WeightFile) int { return NaturalCompare(a.Name, b.Name) })
	return out, nil
}
