package shared

import (
	"log"

	accessAnalyzerTypes "github.com/aws/aws-sdk-go-v2/service/accessanalyzer/types"
)

// ConvertLintFindingsToStrings flattens Access Analyzer policy validation
// findings into "TYPE: issue - detail" strings for the lint report.
func ConvertLintFindingsToStrings(findings []accessAnalyzerTypes.ValidatePolicyFinding) []string {
	var lines []string
	if findings == nil {
		log.Println("validate policy findings null. returning empty strings")
		return lines
	}
	for _, finding := range findings {
		line := string(finding.FindingType)
		if finding.IssueCode != nil {
			line += ": " + *finding.IssueCode
		}
		if finding.FindingDetails != nil {
			line += " - " + *finding.FindingDetails
		}
		lines = append(lines, line)
	}
	return lines
}
