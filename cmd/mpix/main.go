// Command mpix runs a textual pipeline description against a raw pixel
// file, exercising the library end-to-end from a terminal.
//
// Usage:
//
//	mpix read <file> <WxH> <fourcc> ! op [args...] ! ... ! write <file>
//
// Recognised stages (besides read/write):
//
//	convert <fourcc>
//	debayer <1|2|3>
//	kernel <identity|sharpen|edge|gaussian|median> <window>
//	paletteencode <depth>
//	resize <w> <h>
//	subsample <factor>
//	crop <x> <y> <w> <h>
//	correction
//	jpeg <quality>
//	qoi
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/deepteams/mpix"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mpix: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	stages := splitStages(args)
	if len(stages) < 2 {
		return fmt.Errorf("usage: mpix read <file> <WxH> <fourcc> ! op ... ! write <file>")
	}

	readStage := stages[0]
	writeStage := stages[len(stages)-1]
	if len(readStage) == 0 || readStage[0] != "read" {
		return fmt.Errorf("first stage must be 'read'")
	}
	if len(writeStage) == 0 || writeStage[0] != "write" {
		return fmt.Errorf("last stage must be 'write'")
	}

	src, w, h, fourcc, err := doRead(readStage)
	if err != nil {
		return err
	}

	img := mpix.FromBuf(src, mpix.Format{Width: w, Height: h, FourCC: fourcc})
	for _, stage := range stages[1 : len(stages)-1] {
		if err := applyStage(img, stage); err != nil {
			return err
		}
	}

	outPath := writeStage[1]
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := img.ToWriter(out)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", n, outPath)
	return nil
}

// splitStages breaks the argument list on "!" tokens into per-stage word
// lists.
func splitStages(args []string) [][]string {
	var stages [][]string
	var cur []string
	for _, a := range args {
		if a == "!" {
			stages = append(stages, cur)
			cur = nil
			continue
		}
		cur = append(cur, a)
	}
	if len(cur) > 0 {
		stages = append(stages, cur)
	}
	return stages
}

func doRead(stage []string) (buf []byte, w, h int, fourcc mpix.FourCC, err error) {
	if len(stage) < 4 {
		return nil, 0, 0, 0, fmt.Errorf("read: usage: read <file> <WxH> <fourcc>")
	}
	path, dims, fmtName := stage[1], stage[2], stage[3]
	w, h, err = parseDims(dims)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("read: %w", err)
	}
	fourcc, err = parseFourCC(fmtName)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("read: %w", err)
	}
	buf, err = os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("read: %w", err)
	}
	return buf, w, h, fourcc, nil
}

func parseDims(s string) (w, h int, err error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad WxH %q", s)
	}
	w, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad width in %q: %w", s, err)
	}
	h, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad height in %q: %w", s, err)
	}
	return w, h, nil
}

func parseFourCC(s string) (mpix.FourCC, error) {
	switch strings.ToUpper(s) {
	case "RGB1":
		return mpix.RGB1, nil
	case "RGBP":
		return mpix.RGBP, nil
	case "RGBR":
		return mpix.RGBR, nil
	case "RGB3":
		return mpix.RGB3, nil
	case "BX24":
		return mpix.BX24, nil
	case "YUVC":
		return mpix.YUVC, nil
	case "YUV3":
		return mpix.YUV3, nil
	case "YUYV":
		return mpix.YUYV, nil
	case "GREY":
		return mpix.GREY, nil
	case "BA81":
		return mpix.BA81, nil
	case "BGGR":
		return mpix.BGGR, nil
	case "GBRG":
		return mpix.GBRG, nil
	case "GRBG":
		return mpix.GRBG, nil
	case "RGGB":
		return mpix.RGGB, nil
	default:
		return 0, fmt.Errorf("unrecognised fourcc %q", s)
	}
}

func applyStage(img *mpix.Image, stage []string) error {
	if len(stage) == 0 {
		return fmt.Errorf("empty stage")
	}
	op := stage[0]
	args := stage[1:]

	switch op {
	case "convert":
		if len(args) < 1 {
			return fmt.Errorf("convert: missing target fourcc")
		}
		dst, err := parseFourCC(args[0])
		if err != nil {
			return fmt.Errorf("convert: %w", err)
		}
		img.Convert(dst)
	case "debayer":
		if len(args) < 1 {
			return fmt.Errorf("debayer: missing window")
		}
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("debayer: %w", err)
		}
		img.Debayer(mpix.BayerWindow(w))
	case "kernel":
		if len(args) < 2 {
			return fmt.Errorf("kernel: usage: kernel <kind> <window>")
		}
		kind, err := parseKernelKind(args[0])
		if err != nil {
			return fmt.Errorf("kernel: %w", err)
		}
		window, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("kernel: %w", err)
		}
		img.Kernel(kind, window)
	case "paletteencode":
		if len(args) < 1 {
			return fmt.Errorf("paletteencode: missing depth")
		}
		depth, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("paletteencode: %w", err)
		}
		img.PaletteEncode(depth)
	case "palettedecode":
		img.PaletteDecode()
	case "resize":
		if len(args) < 2 {
			return fmt.Errorf("resize: usage: resize <w> <h>")
		}
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		h, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		img.Resize(w, h)
	case "subsample":
		if len(args) < 1 {
			return fmt.Errorf("subsample: missing factor")
		}
		factor, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("subsample: %w", err)
		}
		img.Subsample(factor)
	case "crop":
		if len(args) < 4 {
			return fmt.Errorf("crop: usage: crop <x> <y> <w> <h>")
		}
		vals := make([]int, 4)
		for i, a := range args[:4] {
			v, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("crop: %w", err)
			}
			vals[i] = v
		}
		img.Crop(mpix.Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]})
	case "correction":
		img.Correction()
	case "jpeg":
		quality := 75
		if len(args) > 0 {
			q, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("jpeg: %w", err)
			}
			quality = q
		}
		img.JPEGEncode(mpix.JPEGOptions{Quality: quality})
	case "qoi":
		img.QOIEncode()
	default:
		return fmt.Errorf("unrecognised op %q", op)
	}
	return nil
}

func parseKernelKind(s string) (mpix.KernelKind, error) {
	switch strings.ToLower(s) {
	case "identity":
		return mpix.Identity, nil
	case "sharpen":
		return mpix.Sharpen, nil
	case "edge":
		return mpix.EdgeDetect, nil
	case "gaussian":
		return mpix.Gaussian, nil
	case "median":
		return mpix.Median, nil
	default:
		return 0, fmt.Errorf("unrecognised kernel kind %q", s)
	}
}
