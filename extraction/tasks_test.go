package extraction

import (
	"strings"
	"testing"
)

func TestTasksFromModelOutput_NoTaskSentinel(t *testing.T) {
	if got := TasksFromModelOutput("无任务"); len(got) != 0 {
		t.Errorf("expected no blocks, got %v", got)
	}
	if got := TasksFromModelOutput("  无任务  \n"); len(got) != 0 {
		t.Errorf("expected no blocks for padded sentinel, got %v", got)
	}
	// Sentinel plus commentary but no headings still means no tasks
	if got := TasksFromModelOutput("分析结果如下\n无任务"); len(got) != 0 {
		t.Errorf("expected no blocks, got %v", got)
	}
}

func TestTasksFromModelOutput_SingleHeadedBlock(t *testing.T) {
	raw := "## [取快递] 去西门丰巢取件\n- ⏰ 时间: 尽快\n- 📍 地点: 丰巢西门柜机\n- 🔑 关键信息: 889901"
	blocks := TasksFromModelOutput(raw)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %v", len(blocks), blocks)
	}
	if blocks[0] != raw {
		t.Errorf("block altered: %q", blocks[0])
	}
}

func TestTasksFromModelOutput_MultipleHeadedBlocks(t *testing.T) {
	raw := "## [吃饭] 去KFC吃晚饭\n- ⏰ 时间: 20:00\n- 📍 地点: KFC\n\n## [取快递] 去顺丰北门驿站取件\n- 🔑 关键信息: 123456"
	blocks := TasksFromModelOutput(raw)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if !strings.Contains(blocks[0], "KFC") || strings.Contains(blocks[0], "123456") {
		t.Errorf("block 0 has wrong content: %q", blocks[0])
	}
	if !strings.Contains(blocks[1], "123456") || strings.Contains(blocks[1], "KFC") {
		t.Errorf("block 1 has wrong content: %q", blocks[1])
	}
}

func TestTasksFromModelOutput_StripsFenceAndPrefix(t *testing.T) {
	raw := "```markdown\nOutput:\n## 去取件\n- 🔑 关键信息: 889901\n```"
	blocks := TasksFromModelOutput(raw)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %v", len(blocks), blocks)
	}
	if strings.Contains(blocks[0], "```") {
		t.Errorf("fence not stripped: %q", blocks[0])
	}
}

func TestTasksFromModelOutput_ParagraphFallback(t *testing.T) {
	raw := "去西门取快递 889901\n\n明天交水电费"
	blocks := TasksFromModelOutput(raw)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 paragraph blocks, got %d: %v", len(blocks), blocks)
	}
}

func TestTasksFromModelOutput_EmptyAndBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "```\n```"} {
		if got := TasksFromModelOutput(in); len(got) != 0 {
			t.Errorf("TasksFromModelOutput(%q) = %v, want empty", in, got)
		}
	}
}

func TestParseTaskBlock_LabeledFields(t *testing.T) {
	block := "## [取快递] 去西门丰巢取件\n- ⏰ 时间: 尽快\n- 📍 地点: 丰巢西门柜机\n- 🔑 关键信息: 889901"
	parsed := ParseTaskBlock(block, "待办事项 1")

	if !strings.Contains(parsed.Title, "取快递") {
		t.Errorf("title = %q", parsed.Title)
	}
	if parsed.Time != "尽快" {
		t.Errorf("time = %q, want 尽快", parsed.Time)
	}
	if parsed.Location != "丰巢西门柜机" {
		t.Errorf("location = %q, want 丰巢西门柜机", parsed.Location)
	}
	if parsed.KeyInfo != "889901" {
		t.Errorf("keyInfo = %q, want 889901", parsed.KeyInfo)
	}
}

func TestParseTaskBlock_BoldMarkersAndFullwidthColon(t *testing.T) {
	block := "## **去顺丰北门驿站取件**\n- ⏰ **时间**：尽快\n- 🔑 **关键信息**：**3-3-21011**"
	parsed := ParseTaskBlock(block, "待办事项 1")

	if parsed.Title != "去顺丰北门驿站取件" {
		t.Errorf("title = %q", parsed.Title)
	}
	if parsed.Time != "尽快" {
		t.Errorf("time = %q", parsed.Time)
	}
	if parsed.KeyInfo != "3-3-21011" {
		t.Errorf("keyInfo = %q", parsed.KeyInfo)
	}
}

func TestParseTaskBlock_NoFieldBleedingBetweenBlocks(t *testing.T) {
	raw := "## [吃饭] 去KFC吃晚饭\n- ⏰ 时间: 20:00\n- 📍 地点: KFC\n- 🔑 关键信息: 无\n\n## [取快递] 去顺丰北门驿站取件\n- ⏰ 时间: 尽快\n- 📍 地点: 顺丰北门驿站\n- 🔑 关键信息: 123456"
	blocks := TasksFromModelOutput(raw)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	first := ParseTaskBlock(blocks[0], "待办事项 1")
	second := ParseTaskBlock(blocks[1], "待办事项 2")

	if first.KeyInfo != "" {
		t.Errorf("first block picked up a code: %q", first.KeyInfo)
	}
	if first.Location != "KFC" {
		t.Errorf("first location = %q", first.Location)
	}
	if second.KeyInfo != "123456" {
		t.Errorf("second keyInfo = %q", second.KeyInfo)
	}
	if second.Time != "尽快" {
		t.Errorf("second time = %q", second.Time)
	}
}

func TestParseTaskBlock_UnlabeledFallback(t *testing.T) {
	block := "去取快递\n明天\n889901\n北门驿站"
	parsed := ParseTaskBlock(block, "待办事项 1")

	if parsed.Time != "明天" {
		t.Errorf("time = %q", parsed.Time)
	}
	if parsed.KeyInfo != "889901" {
		t.Errorf("keyInfo = %q", parsed.KeyInfo)
	}
	if parsed.Location != "北门驿站" {
		t.Errorf("location = %q", parsed.Location)
	}
}

func TestParseTaskBlock_PlaceholderNormalization(t *testing.T) {
	block := "## 开会\n- ⏰ 时间: 未提及\n- 📍 地点: 无\n- 🔑 关键信息: **无**"
	parsed := ParseTaskBlock(block, "待办事项 1")

	if parsed.Time != "" || parsed.Location != "" || parsed.KeyInfo != "" {
		t.Errorf("placeholders not normalized: %+v", parsed)
	}
}

func TestParseTaskBlock_BrandMerge(t *testing.T) {
	// Brand on its own line, location without the brand
	block := "## 取快递\n- 📍 地点: 北门驿站\n- 顺丰快递提醒您"
	parsed := ParseTaskBlock(block, "待办事项 1")
	if parsed.Location != "顺丰北门驿站" {
		t.Errorf("location = %q, want 顺丰北门驿站", parsed.Location)
	}

	// Location already carries a brand: no double-prefix
	block2 := "## 取快递\n- 📍 地点: 丰巢西门柜机\n- ⏰ 时间: 尽快"
	parsed2 := ParseTaskBlock(block2, "待办事项 1")
	if parsed2.Location != "丰巢西门柜机" {
		t.Errorf("location = %q, want 丰巢西门柜机", parsed2.Location)
	}

	// Brand with no location at all: brand alone becomes the location
	block3 := "## 取快递\n- 京东包裹 取件码 3-3-21011"
	parsed3 := ParseTaskBlock(block3, "待办事项 1")
	if parsed3.Location != "京东" {
		t.Errorf("location = %q, want 京东", parsed3.Location)
	}
}

func TestParseTaskBlock_FallbackTitle(t *testing.T) {
	parsed := ParseTaskBlock("", "待办事项 3")
	if parsed.Title != "待办事项 3" {
		t.Errorf("title = %q", parsed.Title)
	}
}
