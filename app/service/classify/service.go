package classify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"videoadguard/app/client/llm"
	"videoadguard/app/config"
	"videoadguard/app/dto"

	"github.com/samber/do"
	"github.com/samber/oops"
)

var (
	// ErrParseFailed is returned when the model output is not valid JSON even
	// after cleanup.
	ErrParseFailed = errors.New("classify: failed to parse model response")
	// ErrSchemaInvalid is returned when parsed JSON does not match the
	// expected judgment shape.
	ErrSchemaInvalid = errors.New("classify: model response schema invalid")
)

const systemPrompt = "你是一个敏感的视频观看者，能根据视频的连贯性改变和宣传推销类内容，" +
	"找出视频中可能存在的植入广告。内容如果和主题相关，即使是推荐/评价也可能只是分享而不是广告，" +
	"重点要看有没有提到通过视频博主可以受益的渠道进行购买。"

// Input carries everything the model judges a video by.
type Input struct {
	Title        string
	TopComment   *dto.TopComment
	Captions     []dto.CaptionEntry
	ProductHints []string
	Restricted   bool
}

type Service struct {
	cfg       *config.Config
	llmClient *llm.Client
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:       do.MustInvoke[*config.Config](di),
		llmClient: do.MustInvoke[*llm.Client](di),
	}, nil
}

// Classify asks the model for an ad judgment over the caption sequence.
// The model output is untrusted: it is cleaned, parsed and schema-checked
// before anything downstream sees it.
func (s *Service) Classify(ctx context.Context, input Input) (dto.RawAdJudgment, error) {
	userPrompt := buildUserPrompt(input)

	raw, err := s.llmClient.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return dto.RawAdJudgment{}, oops.Errorf("Complete: %w", err) //nolint:exhaustruct
	}

	slog.DebugContext(ctx, "Model responded",
		slog.Int("length", len(raw)),
	)

	judgment, err := parseJudgment(raw)
	if err != nil {
		return dto.RawAdJudgment{}, err //nolint:exhaustruct
	}

	return judgment, nil
}

func buildUserPrompt(input Input) string {
	topComment := "无"
	if input.TopComment != nil && strings.TrimSpace(input.TopComment.Message) != "" {
		topComment = input.TopComment.Message
	}

	var builder strings.Builder

	builder.WriteString("视频的标题和置顶评论如下，可供参考判断是否有植入广告。")
	builder.WriteString("如果置顶评论中有购买链接，则肯定有广告，同时可以根据置顶评论的内容判断视频中的广告商从而确定哪部分是广告。\n")
	builder.WriteString("视频标题：")
	builder.WriteString(input.Title)
	builder.WriteString("\n置顶评论：")
	builder.WriteString(topComment)
	builder.WriteString("\n")

	if input.Restricted && len(input.ProductHints) > 0 {
		builder.WriteString("置顶评论中检测到以下商品链接，请重点检查字幕中与这些商品相关的推销内容：")
		builder.WriteString(strings.Join(input.ProductHints, "、"))
		builder.WriteString("\n")
	}

	builder.WriteString("下面我会给你这个视频的字幕字典，形式为 index: context. ")
	builder.WriteString("请你完整地找出其中的植入广告，返回json格式的数据。")
	builder.WriteString("注意要返回一整段的广告，从广告的引入到结尾重新转折回到视频内容前，因此不要返回太短的广告，可以组合成一整段返回。\n")
	builder.WriteString("字幕内容：")
	builder.WriteString(buildCaptionsJSON(input.Captions))
	builder.WriteString("\n先返回'exist': bool。true表示存在植入广告，false表示不存在植入广告。\n")
	builder.WriteString("再返回'good_name': list[str]。广告中推销的商品名称列表，没有则返回空列表。\n")
	builder.WriteString("再返回'index_lists': list[list[int]]。二维数组，行数表示广告的段数，")
	builder.WriteString("一般来说视频是没有广告的，但也有小部分会植入一段广告，极少部分是多段广告，因此不要返回过多，")
	builder.WriteString("只返回与标题最不相关或者与置顶链接中的商品最相关的部分。")
	builder.WriteString("每一行是长度为2的数组[start, end]，表示一段广告的开头结尾，start和end是字幕的index。")

	return builder.String()
}
