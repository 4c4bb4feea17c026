// Package objectstore はS3互換オブジェクトストレージへのアクセス制御層を提供する。
//
// 署名付きアップロードURLの発行、オブジェクトメタデータとしてのACLポリシーの
// 付与・取得、ポリシー評価、オブジェクトのストリーミング配信を担う。
// バイト列はアプリケーションサーバーを経由せず、クライアントが署名付きURLで
// 直接アップロードする。ACLポリシーはアップロード完了後に付与される。
package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// uploadURLTTL は署名付きアップロードURLの有効期間（900秒）。
// 期限切れ後のアップロードはストレージプロバイダ側で拒否される。
const uploadURLTTL = 900 * time.Second

// aclMetadataKey はACLポリシーを格納するオブジェクトメタデータのキー。
const aclMetadataKey = "acl-policy"

var (
	// ErrObjectNotFound は対象オブジェクトがストレージに存在しないことを表す。
	ErrObjectNotFound = errors.New("object not found")

	// ErrNoSearchPaths はPUBLIC_OBJECT_SEARCH_PATHSが未設定のまま
	// 公開オブジェクトへアクセスしたことを表す。
	ErrNoSearchPaths = errors.New("PUBLIC_OBJECT_SEARCH_PATHS is not configured")
)

// SigningError は署名バックエンドの障害を表す。
// この場合アップロードURLをクライアントに返してはならない。
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign upload url: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// Config はオブジェクトストレージの設定。
type Config struct {
	Endpoint          string
	Region            string
	AccessKey         string
	SecretKey         string
	Bucket            string
	PrivateDir        string   // 署名付きアップロードの配置先プライベートルート
	PublicSearchPaths []string // 公開オブジェクトの探索キープレフィックス
}

// UploadURL は発行済みの署名付きアップロードURLを表す。
type UploadURL struct {
	URL        string
	Method     string // 常に "PUT"
	ObjectPath string // 正規化済みパス（/objects/uploads/<id>）
	TTL        time.Duration
}

// Service はオブジェクトストレージへのアクセス制御付き操作を提供する。
// プロセス起動時に1回構築し、依存として各所へ渡す。
type Service struct {
	client  *s3.Client
	presign *s3.PresignClient
	config  Config
}

// NewService はServiceを生成する。
// S3クライアントはここで1回だけ構築する。
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // MinIO等のS3互換エンドポイント用
	})

	return &Service{
		client:  client,
		presign: s3.NewPresignClient(client),
		config:  cfg,
	}, nil
}

// IssueUploadURL はPUT専用の署名付きアップロードURLを発行する。
// オブジェクトキーはプライベートルート配下にランダム生成され、
// 発行ごとに一意となる。署名失敗時はSigningErrorを返す。
// URLにACL情報は含まれない。ポリシーはアップロード完了後にSetPolicyで付与する。
func (s *Service) IssueUploadURL(ctx context.Context) (*UploadURL, error) {
	objectID, key := s.newUploadKey()

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(uploadURLTTL))
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	slog.Info("upload url issued", slog.String("object_path", "/objects/uploads/"+objectID))

	return &UploadURL{
		URL:        req.URL,
		Method:     http.MethodPut,
		ObjectPath: "/objects/uploads/" + objectID,
		TTL:        uploadURLTTL,
	}, nil
}

// newUploadKey はアップロード先のオブジェクトIDとストレージキーを生成する。
// IDはUUIDv4で、発行ごとに一意となる。
func (s *Service) newUploadKey() (objectID, key string) {
	objectID = uuid.New().String()
	key = fmt.Sprintf("%s/uploads/%s", strings.Trim(s.config.PrivateDir, "/"), objectID)
	return objectID, key
}

// NormalizeObjectPath はクライアントから報告されたアップロードURLまたはパスを
// 正規化済みエンティティパス（/objects/uploads/<id>）に変換する。
// プライベートルート配下に解決できない場合は入力をそのまま返す。
func (s *Service) NormalizeObjectPath(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		p = u.Path
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, s.config.Bucket+"/")

	privateDir := strings.Trim(s.config.PrivateDir, "/")
	if rest, ok := strings.CutPrefix(p, privateDir+"/"); ok {
		return "/objects/" + rest
	}
	if strings.HasPrefix(raw, "/objects/") {
		return raw
	}
	return raw
}

// KeyForObjectPath は正規化済みパス（/objects/<rest>）をストレージキーに変換する。
// 形式が不正な場合は空文字列を返す。
func (s *Service) KeyForObjectPath(objectPath string) string {
	rest, ok := strings.CutPrefix(objectPath, "/objects/")
	if !ok || rest == "" || strings.Contains(rest, "..") {
		return ""
	}
	return strings.Trim(s.config.PrivateDir, "/") + "/" + rest
}

// SetPolicy はオブジェクトにACLポリシーをメタデータとして付与する。
// 対象オブジェクトが存在しない場合はErrObjectNotFoundを返す
// （メタデータ書き込み前に存在確認を行う）。
func (s *Service) SetPolicy(ctx context.Context, key string, policy *ObjectPolicy) error {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to head object: %w", err)
	}

	encoded, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}

	metadata := map[string]string{}
	for k, v := range head.Metadata {
		metadata[k] = v
	}
	metadata[aclMetadataKey] = string(encoded)

	// S3のメタデータはオブジェクトの自己コピーでのみ更新できる
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.config.Bucket),
		CopySource:        aws.String(s.config.Bucket + "/" + key),
		Key:               aws.String(key),
		Metadata:          metadata,
		MetadataDirective: types.MetadataDirectiveReplace,
		ContentType:       head.ContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to write policy metadata: %w", err)
	}

	return nil
}

// GetPolicy はオブジェクトのACLポリシーを取得する。
// ポリシーメタデータが存在しない場合はnilを返す（エラーにしない）。
// 呼び出し側はnilを「非公開・全拒否」として扱うこと。
func (s *Service) GetPolicy(ctx context.Context, key string) (*ObjectPolicy, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to head object: %w", err)
	}

	encoded, ok := head.Metadata[aclMetadataKey]
	if !ok || encoded == "" {
		return nil, nil
	}

	policy := &ObjectPolicy{}
	if err := json.Unmarshal([]byte(encoded), policy); err != nil {
		return nil, fmt.Errorf("failed to decode policy metadata: %w", err)
	}

	return policy, nil
}

// CanAccessObject はオブジェクトへのアクセス可否を判定する。
// オブジェクト自体が存在しない場合はErrObjectNotFoundを返す。
func (s *Service) CanAccessObject(ctx context.Context, userID, key string, requested Permission) (bool, error) {
	policy, err := s.GetPolicy(ctx, key)
	if err != nil {
		return false, err
	}
	return CanAccess(userID, policy, requested), nil
}

// Stream はオブジェクトのバイト列をレスポンスに書き込む。
// Content-TypeとContent-Lengthは取得結果から引き継ぐ。
func (s *Service) Stream(ctx context.Context, w http.ResponseWriter, key string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	if out.ContentType != nil {
		w.Header().Set("Content-Type", *out.ContentType)
	}
	if out.ContentLength != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*out.ContentLength, 10))
	}

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("failed to stream object: %w", err)
	}
	return nil
}

// StreamPublic は公開探索パス配下からオブジェクトを探して配信する。
// 探索パスを順に試し、最初に見つかったオブジェクトを返す。
// 探索パスが1つも設定されていない場合はErrNoSearchPathsを返す。
func (s *Service) StreamPublic(ctx context.Context, w http.ResponseWriter, filePath string) error {
	if len(s.config.PublicSearchPaths) == 0 {
		return ErrNoSearchPaths
	}
	if filePath == "" || strings.Contains(filePath, "..") {
		return ErrObjectNotFound
	}

	for _, root := range s.config.PublicSearchPaths {
		key := strings.Trim(root, "/") + "/" + filePath
		err := s.Stream(ctx, w, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrObjectNotFound) {
			return err
		}
	}
	return ErrObjectNotFound
}

// isNotFound はS3のオブジェクト不在エラーを判定する。
// HeadObjectはNotFound、GetObjectはNoSuchKeyを返す。
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
