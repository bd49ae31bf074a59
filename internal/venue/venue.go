// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package venue canonicalizes publication venue names. Bibliographies and
// metadata sources spell the same venue many ways ("NeurIPS", "Advances in
// Neural Information Processing Systems", "NIPS"); the alias table maps the
// spellings robotics and ML bibliographies actually use onto one canonical
// short name per venue.
package venue

import "strings"

// aliases maps each canonical venue name to its known spellings. Matching is
// case-insensitive; the canonical name itself always matches.
var aliases = map[string][]string{
	"CoRL":    {"Conference on Robot Learning", "Proceedings of the Conference on Robot Learning"},
	"ICRA":    {"IEEE International Conference on Robotics and Automation", "International Conference on Robotics and Automation", "Proceedings of the IEEE International Conference on Robotics and Automation"},
	"IROS":    {"IEEE/RSJ International Conference on Intelligent Robots and Systems", "International Conference on Intelligent Robots and Systems"},
	"RSS":     {"Robotics: Science and Systems", "Robotics Science and Systems"},
	"RA-L":    {"IEEE Robotics and Automation Letters", "Robotics and Automation Letters", "IEEE Robotics Autom. Lett."},
	"IJRR":    {"International Journal of Robotics Research", "The International Journal of Robotics Research", "Int. J. Robotics Res."},
	"T-RO":    {"IEEE Transactions on Robotics", "Transactions on Robotics", "IEEE Trans. Robotics"},
	"NeurIPS": {"Neural Information Processing Systems", "Advances in Neural Information Processing Systems", "NIPS", "Conference on Neural Information Processing Systems"},
	"ICML":    {"International Conference on Machine Learning", "Proceedings of the International Conference on Machine Learning"},
	"ICLR":    {"International Conference on Learning Representations"},
	"AAAI":    {"AAAI Conference on Artificial Intelligence", "Proceedings of the AAAI Conference on Artificial Intelligence"},
	"IJCAI":   {"International Joint Conference on Artificial Intelligence"},
	"JMLR":    {"Journal of Machine Learning Research", "J. Mach. Learn. Res."},
	"TMLR":    {"Transactions on Machine Learning Research", "Trans. Mach. Learn. Res."},
	"CVPR":    {"IEEE Conference on Computer Vision and Pattern Recognition", "Computer Vision and Pattern Recognition", "IEEE/CVF Conference on Computer Vision and Pattern Recognition"},
	"ICCV":    {"IEEE International Conference on Computer Vision", "International Conference on Computer Vision", "IEEE/CVF International Conference on Computer Vision"},
	"ECCV":    {"European Conference on Computer Vision"},
	"TPAMI":   {"IEEE Transactions on Pattern Analysis and Machine Intelligence", "Transactions on Pattern Analysis and Machine Intelligence", "IEEE Trans. Pattern Anal. Mach. Intell."},
	"ACL":     {"Annual Meeting of the Association for Computational Linguistics", "Association for Computational Linguistics"},
	"EMNLP":   {"Conference on Empirical Methods in Natural Language Processing", "Empirical Methods in Natural Language Processing"},
	"NAACL":   {"North American Chapter of the Association for Computational Linguistics"},
	"TACL":    {"Transactions of the Association for Computational Linguistics"},
	"Nature":  {"Nature"},
	"Science": {"Science"},
	"arXiv":   {"arXiv.org", "CoRR", "Computing Research Repository", "arXiv preprint"},
}

// dblpSearchNames overrides the token appended to DBLP search queries when
// the canonical name differs from the token DBLP indexes. DBLP records
// NeurIPS under its historical name.
var dblpSearchNames = map[string]string{
	"NeurIPS": "NIPS",
}

// Canonical returns the canonical short name for a venue spelling, or ""
// when the spelling is not in the alias table.
func Canonical(name string) string {
	trimmed := strings.TrimSpace(name)
	for canonical, variants := range aliases {
		if strings.EqualFold(trimmed, canonical) {
			return canonical
		}
		for _, v := range variants {
			if strings.EqualFold(trimmed, v) {
				return canonical
			}
		}
	}
	return ""
}

// Match reports whether two venue spellings name the same venue: either
// both canonicalize to the same entry, or one side contains the other's
// canonical name as a substring ("Proc. of NeurIPS 2023" matches
// "Advances in Neural Information Processing Systems").
func Match(a, b string) bool {
	ca, cb := Canonical(a), Canonical(b)
	if ca != "" && ca == cb {
		return true
	}
	if ca != "" && containsFold(b, ca) {
		return true
	}
	if cb != "" && containsFold(a, cb) {
		return true
	}
	return false
}

// DBLPSearchName returns the venue token to append to a DBLP search query
// for the given spelling: the DBLP-specific token when one exists, the
// canonical name when the spelling is known, the spelling itself otherwise.
func DBLPSearchName(name string) string {
	canonical := Canonical(name)
	if canonical == "" {
		return strings.TrimSpace(name)
	}
	if dblp, ok := dblpSearchNames[canonical]; ok {
		return dblp
	}
	return canonical
}

// IsPreprint reports whether a venue string marks a preprint record: empty,
// or carrying an arXiv/CoRR token.
func IsPreprint(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "arxiv") || lower == "corr" || strings.Contains(lower, "computing research repository")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
