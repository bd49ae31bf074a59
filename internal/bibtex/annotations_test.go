// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"strings"
	"testing"
)

const annotatedBib = `% survey bibliography
% paper_id: 204e3073870fae3d05bcbc2f6a8e263d9b72e776, verified via alice (2026.03.15)
@inproceedings{vaswani2017,
  title = {Attention Is All You Need},
  year = {2017}
}

% paper_id: ARXIV:2106.09685
@article{lora2021,
  title = {LoRA},
  year = {2021}
}

% paper_id: abc123, verified via bob
@article{broken2020,
  title = {Broken},
  year = {2020}
}

@article{bare2019,
  title = {Bare},
  doi = {10.1234/example},
  year = {2019}
}
`

func TestVerificationInfo(t *testing.T) {
	id, verified, date := VerificationInfo(annotatedBib, "vaswani2017")
	if id != "204e3073870fae3d05bcbc2f6a8e263d9b72e776" || !verified || date != "2026.03.15" {
		t.Errorf("VerificationInfo(vaswani2017) = (%q, %v, %q)", id, verified, date)
	}

	id, verified, date = VerificationInfo(annotatedBib, "lora2021")
	if id != "ARXIV:2106.09685" || verified || date != "" {
		t.Errorf("VerificationInfo(lora2021) = (%q, %v, %q)", id, verified, date)
	}

	id, verified, _ = VerificationInfo(annotatedBib, "bare2019")
	if id != "" || verified {
		t.Errorf("VerificationInfo(bare2019) = (%q, %v), want empty", id, verified)
	}
}

func TestHasMissingDate(t *testing.T) {
	if !HasMissingDate(annotatedBib, "broken2020") {
		t.Error("HasMissingDate(broken2020) = false, want true")
	}
	if HasMissingDate(annotatedBib, "vaswani2017") {
		t.Error("HasMissingDate(vaswani2017) = true, want false")
	}
	if HasMissingDate(annotatedBib, "lora2021") {
		t.Error("HasMissingDate(lora2021) = true, want false")
	}
}

func TestPaperIDFromEntry(t *testing.T) {
	entries := Parse(annotatedBib)
	byKey := make(map[string]Entry)
	for _, e := range entries {
		byKey[e.Key] = e
	}

	id, source := PaperIDFromEntry(byKey["lora2021"], annotatedBib, true)
	if id != "ARXIV:2106.09685" || source != IDSourceComment {
		t.Errorf("lora2021 = (%q, %q), want comment annotation", id, source)
	}

	id, source = PaperIDFromEntry(byKey["bare2019"], annotatedBib, true)
	if id != "DOI:10.1234/example" || source != IDSourceDOI {
		t.Errorf("bare2019 = (%q, %q), want doi fallback", id, source)
	}

	id, source = PaperIDFromEntry(byKey["bare2019"], annotatedBib, false)
	if id != "" || source != "" {
		t.Errorf("bare2019 without auto-find = (%q, %q), want none", id, source)
	}
}

func TestUpsertAnnotationReplacesExisting(t *testing.T) {
	line := "% paper_id: ARXIV:2106.09685, verified via carol (2026.08.31)"
	updated, err := UpsertAnnotation(annotatedBib, "lora2021", []string{line})
	if err != nil {
		t.Fatalf("UpsertAnnotation() error: %v", err)
	}

	if !strings.Contains(updated, "% paper_id: ARXIV:2106.09685, verified via carol (2026.08.31)") {
		t.Error("updated content missing new annotation")
	}
	if strings.Count(updated, "paper_id: ARXIV:2106.09685") != 1 {
		t.Error("old annotation was not replaced")
	}

	// Other entries keep their annotations.
	id, verified, _ := VerificationInfo(updated, "vaswani2017")
	if id == "" || !verified {
		t.Error("unrelated annotation was disturbed")
	}
}

func TestUpsertAnnotationAddsToBareEntry(t *testing.T) {
	updated, err := UpsertAnnotation(annotatedBib, "bare2019", []string{
		PaperIDComment("DOI:10.1234/example"),
		ConfidenceComment(0.91, "title"),
	})
	if err != nil {
		t.Fatalf("UpsertAnnotation() error: %v", err)
	}

	if !strings.Contains(updated, "% paper_id: DOI:10.1234/example\n% paper_id_confidence: 0.91 (source: title)\n@article{bare2019,") {
		t.Errorf("annotation block not inserted before entry:\n%s", updated)
	}
}

func TestUpsertAnnotationKeepsUnrelatedComments(t *testing.T) {
	updated, err := UpsertAnnotation(annotatedBib, "vaswani2017", []string{PaperIDComment("newid")})
	if err != nil {
		t.Fatalf("UpsertAnnotation() error: %v", err)
	}
	if !strings.Contains(updated, "% survey bibliography") {
		t.Error("unrelated comment line was dropped")
	}
	if strings.Contains(updated, "verified via alice") {
		t.Error("stale verification annotation survived")
	}
}

func TestUpsertAnnotationMissingEntry(t *testing.T) {
	if _, err := UpsertAnnotation(annotatedBib, "nosuch", nil); err == nil {
		t.Error("UpsertAnnotation() on a missing entry should fail")
	}
}
