package ocr

import "strconv"

func setVariable(in *Input, key, value string) {
	if in.Metadata == nil {
		in.Metadata = make(map[string]string)
	}
	in.Metadata[key] = value
}

// WithTesseractPSM sets the Tesseract page segmentation mode. Mode 11
// (sparse text) suits scanned pages with scattered fields.
func WithTesseractPSM(mode int) InputOption {
	return func(in *Input) { setVariable(in, "tessedit_pageseg_mode", strconv.Itoa(mode)) }
}

// WithTesseractWhitelist restricts recognition to chars.
func WithTesseractWhitelist(chars string) InputOption {
	return func(in *Input) { setVariable(in, "tessedit_char_whitelist", chars) }
}
