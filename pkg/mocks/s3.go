package mocks

import (
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/mock"
)

// S3Mock mocks the S3 calls used for knowledge files. Other S3API methods panic.
type S3Mock struct {
	s3iface.S3API
	mock.Mock
}

// GetObject mocks fetching an object
func (m *S3Mock) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	args := m.Called(input)
	var output *s3.GetObjectOutput
	if o, ok := args.Get(0).(*s3.GetObjectOutput); ok {
		output = o
	}
	return output, args.Error(1)
}

// PutObject mocks uploading an object
func (m *S3Mock) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	args := m.Called(input)
	var output *s3.PutObjectOutput
	if o, ok := args.Get(0).(*s3.PutObjectOutput); ok {
		output = o
	}
	return output, args.Error(1)
}
