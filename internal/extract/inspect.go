package extract

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFInfo is what a structural read of the document tells us before extraction.
type PDFInfo struct {
	Pages        int
	ImageStreams int
}

var pdfcpuInit sync.Once

// InspectPDF reads and validates the document in memory with pdfcpu. Every call builds its
// own pdfcpu context; nothing is shared between calls.
func InspectPDF(data []byte) (PDFInfo, error) {
	// keep pdfcpu from creating its config directory on disk
	pdfcpuInit.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return PDFInfo{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	return PDFInfo{Pages: ctx.PageCount, ImageStreams: countImageStreams(ctx)}, nil
}

// countImageStreams counts image XObjects referenced by pages, falling back to a scan of the
// xref table when the optimizer did not resolve page resources.
func countImageStreams(ctx *model.Context) int {
	n := 0
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			n += len(pdfcpu.ImageObjNrs(ctx, pageNr))
		}
	}
	if n > 0 {
		return n
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				n++
			}
		}
	}
	return n
}

// looksLikePDF checks for the %PDF- header, which the format allows anywhere in the
// first kilobyte.
func looksLikePDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}
