package blob

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

// ObjectGetter is the slice of the S3 API the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3LeadSource reads the CRM lead and account exports from an S3 bucket.
type S3LeadSource struct {
	Client      ObjectGetter
	Bucket      string
	LeadsKey    string
	AccountsKey string
	Logger      *zap.Logger
}

func NewS3LeadSource(client ObjectGetter, bucket, leadsKey, accountsKey string, logger *zap.Logger) *S3LeadSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3LeadSource{
		Client:      client,
		Bucket:      bucket,
		LeadsKey:    leadsKey,
		AccountsKey: accountsKey,
		Logger:      logger,
	}
}

func (s *S3LeadSource) LoadLeads(ctx context.Context) ([]entity.Lead, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.LeadsKey),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.Bucket, s.LeadsKey, err)
	}
	defer out.Body.Close()

	leads, duplicates, err := ParseLeads(out.Body)
	if err != nil {
		return nil, fmt.Errorf("parse leads export: %w", err)
	}
	if duplicates > 0 {
		s.Logger.Info("dropped duplicate leads",
			zap.Int("count", duplicates),
			zap.String("key", s.LeadsKey))
	}
	return leads, nil
}

func (s *S3LeadSource) LoadAccounts(ctx context.Context) (entity.EmailSet, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.AccountsKey),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.Bucket, s.AccountsKey, err)
	}
	defer out.Body.Close()

	accounts, err := ParseAccounts(out.Body)
	if err != nil {
		return nil, fmt.Errorf("parse accounts export: %w", err)
	}
	return accounts, nil
}
