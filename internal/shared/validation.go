package shared

import (
	"log"
	"regexp"
)

const (

	// regex patterns for input validation
	awsAccountIdPattern = `^\d{12}$`

	awsIamRoleArnPattern = `arn:aws:iam::\d{12}:role\/[a-zA-Z_0-9+=,.@\-_/]+`
)

// validate aws account id
func IsValidAwsAccountId(accountId string) bool {
	matched, err := regexp.MatchString(awsAccountIdPattern, accountId)
	if err != nil {
		log.Printf("error validating aws account id: %s", err)
		return false
	}
	return matched
}

// validate iam role arn (assume-role targets from the accounts registry)
func IsValidIamRoleArn(roleArn string) bool {
	matched, err := regexp.MatchString(awsIamRoleArnPattern, roleArn)
	if err != nil {
		log.Printf("error validating iam role arn: %s", err)
		return false
	}
	return matched
}

func ValidateAnnotation(str string, maxLength int) string {
	if str != "" {
		return truncateString(str, maxLength)
	}
	return "N/A"
}

func truncateString(str string, maxLength int) string {
	if len(str) > maxLength {
		if maxLength > 3 {
			return str[:maxLength-3] + "..."
		}
		return str[:maxLength]
	}
	return str
}
