// Package identifier validates the platform selector and cleans user-supplied
// identifiers (DOIs, arXiv IDs, package names, GitHub repositories) into the
// bare form each external API expects.
package identifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Platform selects which external API an identifier belongs to.
type Platform string

const (
	DOI    Platform = "doi"
	ArXiv  Platform = "arxiv"
	CRAN   Platform = "cran"
	Python Platform = "python"
	GitHub Platform = "github"
)

// placeholderPlatform is the unselected value of the platform dropdown.
const placeholderPlatform = "choose..."

// Platforms lists all supported platforms in selector order.
var Platforms = []Platform{DOI, ArXiv, CRAN, Python, GitHub}

// Errors.
var (
	ErrNoPlatform      = errors.New("no platform selected")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrEmptyIdentifier = errors.New("identifier is empty")
	ErrInvalidDOI      = errors.New("DOI invalid")
	ErrInvalidGitHub   = errors.New("invalid GitHub repository (expected owner/repo)")
	ErrInvalidPackage  = errors.New("invalid package name")
	ErrInvalidArXivID  = errors.New("invalid arXiv identifier")
)

// doiPattern is the accepted DOI shape after URL prefixes are removed.
var doiPattern = regexp.MustCompile(`(?i)^10.\d{4,9}/[-._;()/:A-Z0-9]+$`)

// repoPattern matches owner/repo with an optional .git suffix.
var repoPattern = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?$`)

// packagePattern matches CRAN and PyPI package names.
var packagePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Prefixes removed from raw input, applied in order. Each is removed once.
var (
	doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "doi.org/"}

	arxivPrefixes = []string{"https://arxiv.org/abs/", "http://arxiv.org/abs/", "arxiv.org/abs/", "abs/"}

	cranPrefixes = []string{
		"https://cran.r-project.org/web/packages/",
		"http://cran.r-project.org/web/packages/",
		"/index.html",
		"https://CRAN.R-project.org/package=",
		"https://cran.r-project.org/package=",
	}

	pypiPrefixes = []string{"https://pypi.org/project/", "http://pypi.org/project/", "pypi.org/project/", "project/"}

	githubPrefixes = []string{
		"https://www.github.com/",
		"http://www.github.com/",
		"www.github.com/",
		"https://github.com/",
		"http://github.com/",
		"github.com/",
	}
)

// ParsePlatform validates a platform selector value.
func ParsePlatform(s string) (Platform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == placeholderPlatform {
		return "", ErrNoPlatform
	}
	// "pypi" is accepted as an alias for the python selector.
	if s == "pypi" {
		return Python, nil
	}
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownPlatform, s)
}

// InventoryField returns the inventory predicate that stores identifiers of
// the given platform.
func (p Platform) InventoryField() string {
	if p == Python {
		return "pypi"
	}
	return string(p)
}

// Label returns a human-readable platform name.
func (p Platform) Label() string {
	switch p {
	case DOI:
		return "DOI"
	case ArXiv:
		return "arXiv"
	case CRAN:
		return "CRAN"
	case Python:
		return "PyPI"
	case GitHub:
		return "GitHub"
	}
	return string(p)
}

// stripPrefixes removes each occurrence of the listed strings once, in order.
func stripPrefixes(s string, prefixes []string) string {
	for _, p := range prefixes {
		s = strings.Replace(s, p, "", 1)
	}
	return s
}

// Sanitize trims the raw identifier, strips the URL forms users tend to paste
// and validates the result for the given platform.
func Sanitize(p Platform, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyIdentifier
	}

	switch p {
	case DOI:
		return CleanDOI(id)
	case ArXiv:
		return CleanArXiv(id)
	case CRAN:
		id = stripPrefixes(id, cranPrefixes)
		id = strings.TrimSuffix(id, "/")
		if !packagePattern.MatchString(id) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPackage, id)
		}
		return id, nil
	case Python:
		id = stripPrefixes(id, pypiPrefixes)
		id = strings.TrimSuffix(id, "/")
		if !packagePattern.MatchString(id) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPackage, id)
		}
		return id, nil
	case GitHub:
		owner, repo, err := ParseRepo(id)
		if err != nil {
			return "", err
		}
		return owner + "/" + repo, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
}

// CleanDOI removes doi.org URL prefixes and validates the DOI shape.
func CleanDOI(raw string) (string, error) {
	doi := stripPrefixes(strings.TrimSpace(raw), doiPrefixes)
	if !doiPattern.MatchString(doi) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDOI, doi)
	}
	return doi, nil
}

// CleanArXiv strips arXiv abstract-page URL prefixes.
func CleanArXiv(raw string) (string, error) {
	id := stripPrefixes(strings.TrimSpace(raw), arxivPrefixes)
	id = strings.TrimSuffix(id, "/")
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	if id == "" || strings.ContainsAny(id, " ?&#") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArXivID, raw)
	}
	return id, nil
}

// ParseRepo parses a GitHub URL or owner/repo shorthand and returns (owner, repo).
// Supported formats:
//   - https://github.com/owner/repo
//   - https://www.github.com/owner/repo
//   - github.com/owner/repo.git
//   - owner/repo
func ParseRepo(input string) (owner, repo string, err error) {
	input = stripPrefixes(strings.TrimSpace(input), githubPrefixes)
	input = strings.TrimSuffix(input, "/")

	matches := repoPattern.FindStringSubmatch(input)
	if matches == nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidGitHub, input)
	}
	return matches[1], matches[2], nil
}
