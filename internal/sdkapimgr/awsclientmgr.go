package sdkapimgr

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/noobzero/security-monkey/internal/accessanalyzerapi"
	"github.com/noobzero/security-monkey/internal/cache"
	"github.com/noobzero/security-monkey/internal/configserviceapi"
	"github.com/noobzero/security-monkey/internal/iamapi"
	"github.com/noobzero/security-monkey/internal/registry"
	"github.com/noobzero/security-monkey/internal/s3api"
	"github.com/noobzero/security-monkey/internal/shared"
)

// SdkApiMgr hands out per-account AWS API wrappers.  Registry accounts that
// carry an assume-role ARN get their own clients on assumed credentials so
// collectors can pull items from every known account in one run.
type SdkApiMgr interface {
	GetApi(accountId string, serviceName string) (interface{}, bool)
	SetApi(accountId string, serviceName string, client interface{}) error
}

type awsApiMgr struct {
	apiMap cache.Store
}

type SDKApiMgrConfig struct {
	Cfg           aws.Config
	MainAccountId string
	Accounts      []registry.Account
}

const (
	S3Service             string = "s3"              // simple storage service (s3)
	ConfigService         string = "config-service"  // AWS Config service
	IamService            string = "iam"             // identity and access management (iam)
	AccessAnalyzerService string = "access-analyzer" // AWS Access Analyzer
)

// initialize instance of aws client mgr
func InitAwsApiMgr(config SDKApiMgrConfig) (SdkApiMgr, error) {

	if !shared.IsValidAwsAccountId(config.MainAccountId) {
		return nil, errors.New("valid main account id is required")
	}

	if config.Cfg.Credentials == nil {
		return nil, errors.New("valid config credentials provider required")
	}

	awscm := NewAwsApiMgr()

	cfgCopy := config.Cfg.Copy()

	// main account clients
	awscm.SetApi(config.MainAccountId, IamService, iamapi.NewIamApi(iam.NewFromConfig(cfgCopy)))
	awscm.SetApi(config.MainAccountId, S3Service, s3api.NewS3SDKClient(s3.NewFromConfig(cfgCopy)))
	awscm.SetApi(config.MainAccountId, ConfigService, configserviceapi.NewConfigServiceApi(configservice.NewFromConfig(cfgCopy)))
	awscm.SetApi(config.MainAccountId, AccessAnalyzerService, accessanalyzerapi.NewAccessAnalyzerApi(accessanalyzer.NewFromConfig(cfgCopy)))

	// assume-role clients for registry accounts that allow collection
	stsClient := sts.NewFromConfig(cfgCopy)
	for _, account := range config.Accounts {
		if account.RoleArn == "" || account.AccountID == config.MainAccountId {
			continue
		}
		if !shared.IsValidIamRoleArn(account.RoleArn) {
			return nil, errors.New("invalid assume-role arn for account " + account.AccountID)
		}
		assumedCfg := config.Cfg.Copy()
		assumedCfg.Credentials = stscreds.NewAssumeRoleProvider(stsClient, account.RoleArn)

		if err := awscm.SetApi(account.AccountID, IamService, iamapi.NewIamApi(iam.NewFromConfig(assumedCfg))); err != nil {
			return nil, err
		}
		if err := awscm.SetApi(account.AccountID, S3Service, s3api.NewS3SDKClient(s3.NewFromConfig(assumedCfg))); err != nil {
			return nil, err
		}
	}

	return awscm, nil
}

func NewAwsApiMgr() SdkApiMgr {
	return &awsApiMgr{
		apiMap: cache.NewStore(),
	}
}

// get sdk client
func (awscm *awsApiMgr) GetApi(accountId string, serviceName string) (interface{}, bool) {
	if accountId == "" || serviceName == "" {
		return nil, false
	}
	key := shared.Key{
		PrimaryKey: accountId,
		SortKey:    serviceName,
	}
	return awscm.apiMap.Get(key)
}

// set sdk client
func (awscm *awsApiMgr) SetApi(accountId string, serviceName string, client interface{}) error {
	if accountId == "" || serviceName == "" || client == nil {
		return errors.New("required field(s) cannot be empty")
	}

	key := shared.Key{
		PrimaryKey: accountId,
		SortKey:    serviceName,
	}
	switch serviceName {
	case S3Service:
		if _, ok := client.(s3api.S3Api); !ok {
			return errors.New("invalid s3 client")
		}
	case ConfigService:
		if _, ok := client.(configserviceapi.ConfigServiceApi); !ok {
			return errors.New("invalid config service client")
		}
	case IamService:
		if _, ok := client.(iamapi.IamApi); !ok {
			return errors.New("invalid iam client")
		}
	case AccessAnalyzerService:
		if _, ok := client.(accessanalyzerapi.AccessAnalyzerApi); !ok {
			return errors.New("invalid access analyzer client")
		}
	default:
		return errors.New("invalid service name")
	}

	awscm.apiMap.Set(key, client)
	return nil
}
