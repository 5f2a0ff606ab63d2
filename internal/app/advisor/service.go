package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chibo-dx/roster-api/internal/app/apperr"
	advisorport "github.com/chibo-dx/roster-api/internal/ports/out/advisor"
)

// MaxTopicRunes bounds the topic a caller may send.
const MaxTopicRunes = 2000

const promptTemplate = `Bạn là trợ lý ảo hỗ trợ công tác Đảng, công tác chính trị ở chi bộ cơ sở.
Hãy tư vấn về nội dung: %q.
Yêu cầu: dùng thuật ngữ chuẩn xác, bám sát Điều lệ Đảng và thực tiễn chi bộ cơ sở.
Câu trả lời súc tích, có tính ứng dụng cao.`

type Service struct {
	gen advisorport.Generator
}

// NewService returns a Service. A nil generator disables the advisor; Ask then reports
// ADVISOR_UNAVAILABLE.
func NewService(gen advisorport.Generator) *Service {
	return &Service{gen: gen}
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s.gen != nil
}

func (s *Service) Ask(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", apperr.Invalid("invalid topic", "topic", "must be non-empty")
	}
	if len([]rune(topic)) > MaxTopicRunes {
		return "", apperr.Invalid("invalid topic", "topic", fmt.Sprintf("must be at most %d characters", MaxTopicRunes))
	}
	if s.gen == nil {
		return "", apperr.Upstream(apperr.CodeAdvisorUnavailable, "the advisor is not configured", nil)
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(topic))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apperr.Upstream(apperr.CodeAdvisorUnavailable, "the advisor could not be reached", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Upstream(apperr.CodeAdvisorUnavailable, "the advisor returned an empty answer", nil)
	}
	return text, nil
}

// BuildPrompt wraps a caller topic in the branch-work instructions.
func BuildPrompt(topic string) string {
	return fmt.Sprintf(promptTemplate, topic)
}
