package surface

import (
	"regexp"
	"strings"

	"github.com/protoloom/protoloom/pkg/schema"
)

var (
	packageRe = regexp.MustCompile(`(?m)^\s*package\s+([\w.]+)\s*;`)
	serviceRe = regexp.MustCompile(`\bservice\s+(\w+)\s*\{`)
	rpcRe     = regexp.MustCompile(`\brpc\s+(\w+)\s*\(\s*(stream\s+)?([\w.]+)\s*\)\s*returns\s*\(\s*(stream\s+)?([\w.]+)\s*\)`)
)

// Parse extracts ServiceSummary records from one proto source's raw text.
// It returns ErrNoServices iff the text declares zero services.
func Parse(content string) ([]schema.ServiceSummary, error) {
	return ParseAll([]string{content})
}

// ParseAll extracts ServiceSummary records across multiple proto sources,
// returning ErrNoServices only if none of them declare any service.
func ParseAll(contents []string) ([]schema.ServiceSummary, error) {
	var summaries []schema.ServiceSummary

	for _, content := range contents {
		pkg := extractPackage(content)
		for _, block := range extractServiceBlocks(content) {
			summaries = append(summaries, schema.ServiceSummary{
				Name:    block.name,
				Package: pkg,
				Methods: extractMethods(block.body),
			})
		}
	}

	if len(summaries) == 0 {
		return nil, ErrNoServices
	}
	return summaries, nil
}

func extractPackage(content string) string {
	m := packageRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return m[1]
}

type serviceBlock struct {
	name string
	body string
}

// extractServiceBlocks finds each "service NAME {" header and scans forward
// with brace-depth counting to find its matching close, tolerating nested
// brace groups (e.g. method option blocks) inside the body.
func extractServiceBlocks(content string) []serviceBlock {
	var blocks []serviceBlock

	for _, loc := range serviceRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[loc[2]:loc[3]]
		openIdx := loc[1] - 1 // index of the "{" that serviceRe matched
		end := matchBrace(content, openIdx)
		if end < 0 {
			continue
		}
		blocks = append(blocks, serviceBlock{name: name, body: content[openIdx+1 : end]})
	}
	return blocks
}

// matchBrace returns the index of the brace matching the one at openIdx,
// or -1 if unbalanced.
func matchBrace(content string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func extractMethods(body string) []schema.MethodSummary {
	var methods []schema.MethodSummary
	for _, m := range rpcRe.FindAllStringSubmatch(body, -1) {
		clientStreaming := strings.TrimSpace(m[2]) != ""
		serverStreaming := strings.TrimSpace(m[4]) != ""
		methods = append(methods, schema.MethodSummary{
			Name:            m[1],
			InputType:       m[3],
			OutputType:      m[5],
			ClientStreaming: clientStreaming,
			ServerStreaming: serverStreaming,
			MethodType:      schema.DeriveMethodType(clientStreaming, serverStreaming),
		})
	}
	return methods
}
