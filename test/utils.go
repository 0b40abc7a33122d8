package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"capsulifyapi/dbhelper"
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"capsulifyapi/services"

	"github.com/golang-jwt/jwt/v4"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

// SetupDB opens the test database with a clean slate, or skips the test when
// no database is reachable.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbhelper.OpenTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	cleaner := dbhelper.SetupCleaner(db)
	cleaner()
	t.Cleanup(cleaner)
	return db
}

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		panic(fmt.Sprintf("signing user token for %s: %v", userPk, err))
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userPk)))
	return req
}

func NewJSONAuthRequestRaw(method string, target string, userPk string, json string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(json))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userPk)))
	return req
}

func FakeUser(db *gorm.DB) *models.UserAccount {
	return FakeUserV2(db, "OurName", "email@example.com")
}

func FakeUserV2(db *gorm.DB, userName string, email string) *models.UserAccount {
	user := &models.UserAccount{
		Name:      userName,
		Email:     email,
		GoogleID:  "12232",
		Platform:  models.PlatformIOS,
		LastIp:    "123.122.122.122",
		Status:    "FINISHED_AUTH",
		AvatarURL: "pictureurl",
	}
	db.Create(user)
	db.Create(&models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      models.PlatformAndroid,
		Token:         "cX-UZ3zwQEiPt-2GJkG2gA:APA91bGqRflaGrJrnynhRwZ442HdgUjVcO7mWMFnx6Iw",
		Active:        true,
	})
	return user
}

// FakeVariant creates a catalog variant.
func FakeVariant(db *gorm.DB, category outfits.Category, name string) models.ClothingVariant {
	key := fmt.Sprintf("catalog/%s/%s.png", category.Slug(), name)
	variant := models.ClothingVariant{
		CategoryID:  category,
		Subcategory: name,
		Name:        name,
		Color:       "black",
		ImageKey:    &key,
	}
	db.Create(&variant)
	return variant
}

// FakeWardrobe creates counts[c] variants per category, owned by the user, in
// category order.
func FakeWardrobe(db *gorm.DB, userID uint, counts map[outfits.Category]int) []models.ClothingVariant {
	var variants []models.ClothingVariant
	for _, c := range outfits.Categories {
		for i := 0; i < counts[c]; i++ {
			v := FakeVariant(db, c, fmt.Sprintf("%s-%d", c.Slug(), i+1))
			db.Create(&models.UserClothingVariant{UserAccountID: userID, ClothingVariantID: v.ID})
			variants = append(variants, v)
		}
	}
	return variants
}

// PNG returns a small encoded image of a single colour.
func PNG(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

type GoogleServiceMock struct{}

func (gsm GoogleServiceMock) ValidateIdToken(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error) {
	return &idtoken.Payload{Issuer: "Issue", Audience: "AAA", Expires: 119919191919, IssuedAt: 12312321321, Subject: "fake@example.com", Claims: map[string]interface{}{
		"email":   "fake@example.com",
		"picture": "pictureurl",
		"name":    "Fake Person",
		"sub":     "123googleid",
	}}, nil
}

// AWSProviderMock serves MockUrl for every read and remembers uploads.
type AWSProviderMock struct {
	MockUrl string
	Keys    []string
	ListErr error

	mu       sync.Mutex
	Uploads  map[string][]byte
	Deleted  []string
	Presigns []string
}

func (awsService *AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService *AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	awsService.Presigns = append(awsService.Presigns, fileName)
	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	if awsService.MockUrl != "" {
		return awsService.MockUrl, nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/%s?signed", fileKey), nil
}

func (awsService *AWSProviderMock) UploadToPresignedURL(ctx context.Context, url string, fileContent []byte) (int, error) {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	if awsService.Uploads == nil {
		awsService.Uploads = map[string][]byte{}
	}
	awsService.Uploads[strings.TrimPrefix(url, "https://fakebucketurl.com/")] = fileContent
	return http.StatusOK, nil
}

func (awsService *AWSProviderMock) ListObjectKeys(ctx context.Context, bucketName, prefix string) ([]string, error) {
	if awsService.ListErr != nil {
		return nil, awsService.ListErr
	}
	var keys []string
	for _, key := range awsService.Keys {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (awsService *AWSProviderMock) DeleteObject(ctx context.Context, bucketName, fileKey string) error {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	awsService.Deleted = append(awsService.Deleted, fileKey)
	return nil
}

type URLCacheMock struct{}

func (URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return "https://cdn.capsulify.test/" + objectKey, nil
}

// GarmentProcessorMock answers every extraction with Response or Err.
// OnExtract runs while the extraction is in flight.
type GarmentProcessorMock struct {
	Response  *services.LLMResponse
	Err       error
	Calls     int
	OnExtract func()
}

func (m *GarmentProcessorMock) ExtractGarment(ctx context.Context, photoPath string, category outfits.Category, modelName services.LLMModelName) (*services.LLMResponse, error) {
	m.Calls++
	if m.OnExtract != nil {
		m.OnExtract()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response, nil
	}
	return &services.LLMResponse{
		Images:           [][]byte{PNG(color.RGBA{R: 20, G: 40, B: 160, A: 255})},
		InputTokenCount:  10,
		OutputTokenCount: 13,
		TotalTokenCount:  23,
	}, nil
}

type Notification struct {
	UserID uint
	Title  string
	Data   map[string]string
}

type NotifierMock struct {
	mu   sync.Mutex
	Sent []Notification
}

func (n *NotifierMock) Notify(ctx context.Context, userID uint, title, body string, data map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{UserID: userID, Title: title, Data: data})
}
