package parse

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

var (
	chunkSplitRx = regexp.MustCompile(`[;,|]`)
	certScoreRx  = regexp.MustCompile(`^\s*(?:\(?\s*(?:[ABC][12]|\d{1,3}(?:[.,]\d)?)\s*\)?)`)
)

// languages reads one entry per language mention. A line is cut into chunks at , ; |
// and each language name starts a clause that runs to the next one. Chunks without a
// language name (", B2 spoken" or a level on its own line) complete the previous entry.
func (p *Parser) languages(body []line) []Entry {
	var entries []Entry
	for _, ln := range body {
		t := stripBullet(ln.trimmed())
		if t == "" {
			continue
		}
		for _, chunk := range chunkSplitRx.Split(t, -1) {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			f := vocab.Fold(chunk)
			hits := p.vocab.LanguageMatcher().FindAll(f)
			if len(hits) == 0 {
				if n := len(entries); n > 0 {
					p.assignLevels(entries[n-1], chunk, f, true)
				}
				continue
			}
			for k, h := range hits {
				from, to := h.Start, len(f)
				if k == 0 {
					from = 0
				}
				if k+1 < len(hits) {
					to = hits[k+1].Start
				}
				e := Entry{KeyLanguage: h.Label}
				p.assignLevels(e, vocab.Original(chunk, f, from, to), f[from:to], false)
				entries = append(entries, e)
			}
		}
	}
	if len(entries) == 0 {
		// languages the vocabulary does not know: short lines, kept as written
		for _, ln := range body {
			t := stripBullet(ln.trimmed())
			if n := len(strings.Fields(t)); n == 0 || n > 3 || strings.ContainsAny(t, "0123456789:") {
				continue
			}
			entries = append(entries, Entry{KeyLanguage: t})
		}
	}
	return entries
}

// assignLevels sets written/spoken levels and certificates found in one clause. Levels
// next to a written or spoken marker go to that skill; an unmarked level applies to both.
// When augmenting a previous entry, unmarked levels only fill an entry that has none.
func (p *Parser) assignLevels(e Entry, orig, folded string, augment bool) {
	for _, h := range p.vocab.CertificateMatcher().FindAll(folded) {
		cert := vocab.Original(orig, folded, h.Start, h.End)
		if m := certScoreRx.FindString(vocab.Original(orig, folded, h.End, len(folded))); m != "" {
			cert += " " + strings.Trim(m, " ()")
		}
		e.add(KeyCertifications, strings.TrimSpace(cert))
	}

	levels := p.vocab.LevelMatcher().FindAll(folded)
	if len(levels) == 0 {
		return
	}
	written := p.vocab.WrittenMatcher().FindAll(folded)
	spoken := p.vocab.SpokenMatcher().FindAll(folded)

	if len(written) == 0 && len(spoken) == 0 {
		if augment && (e.String(KeyWritten) != "" || e.String(KeySpoken) != "") {
			return
		}
		w, s := levels[0].Label, levels[0].Label
		if len(levels) > 1 {
			s = levels[1].Label
		}
		e[KeyWritten], e[KeySpoken] = w, s
		return
	}
	for _, m := range written {
		e[KeyWritten] = nearest(levels, m).Label
	}
	for _, m := range spoken {
		e[KeySpoken] = nearest(levels, m).Label
	}
}

// nearest returns the level closest to marker; on a tie the level before the marker wins
// ("B2 written").
func nearest(levels []vocab.Hit, marker vocab.Hit) vocab.Hit {
	best, bestGap := levels[0], -1
	for _, l := range levels {
		gap := 0
		switch {
		case l.End <= marker.Start:
			gap = marker.Start - l.End
		case l.Start >= marker.End:
			gap = l.Start - marker.End + 1
		}
		if bestGap < 0 || gap < bestGap {
			best, bestGap = l, gap
		}
	}
	return best
}
