package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MediaService signs direct browser uploads to Cloudinary. Files never pass through the API.
type MediaService struct {
	cloudName string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

type UploadSignature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

func NewMediaService(cloudinaryURL string) (*MediaService, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &MediaService{
		cloudName: cld.Config.Cloud.CloudName,
		apiKey:    cld.Config.Cloud.APIKey,
		apiSecret: cld.Config.Cloud.APISecret,
		now:       time.Now,
	}, nil
}

func (s *MediaService) SignUpload(folder string) (*UploadSignature, error) {
	params, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return nil, fmt.Errorf("prepare upload params: %w", err)
	}
	timestamp := s.now().Unix()
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(params, s.apiSecret)
	if err != nil {
		return nil, fmt.Errorf("sign upload params: %w", err)
	}
	return &UploadSignature{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    s.apiKey,
		CloudName: s.cloudName,
		Folder:    folder,
	}, nil
}

func CourseMaterialFolder(courseID fmt.Stringer) string {
	return "coursehub/courses/" + courseID.String() + "/materials"
}

func SubmissionFolder(assignmentID, studentID fmt.Stringer) string {
	return "coursehub/assignments/" + assignmentID.String() + "/submissions/" + studentID.String()
}
