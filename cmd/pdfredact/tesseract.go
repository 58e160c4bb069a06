//go:build tesseract

package main

// Registers gosseract as the default OCR engine.
import _ "github.com/wudi/pdfredact/ocr/tesseract"
