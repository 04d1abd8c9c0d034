// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// cannedBranch is a pre-cascade intent with no reliable external source:
// a generic web answer for these would be unhelpfully generic, so each
// renders a template answer with concrete next actions instead.
type cannedBranch struct {
	name   string
	tokens []string
	build  func() types.Structured
}

var cannedBranches = []cannedBranch{
	{
		name:   "canned:device_health",
		tokens: []string{"设备状态", "设备健康", "智能家居", "传感器", "device status", "smart home"},
		build: func() types.Structured {
			text := "我这边看不到你家里设备的实时状态。通常可以先检查设备指示灯和网络连接，再在对应的管理应用里查看在线状态。"
			return types.Structured{
				FinalText: text,
				Facts: []string{
					"设备离线最常见的原因是 Wi-Fi 断连或电源问题",
					"多数设备重启后会在一分钟内重新上线",
				},
				NextActions: []types.NextAction{
					{Type: "guide", Text: "查看设备管理应用里的在线状态"},
					{Type: "guide", Text: "重启离线的设备和路由器"},
					{Type: "rephrase", Text: "告诉我具体是哪台设备、什么现象"},
				},
			}
		},
	},
	{
		name:   "canned:property",
		tokens: []string{"房价", "楼市", "房地产", "买房", "property market", "real estate"},
		build: func() types.Structured {
			text := "房价行情随区域和时间波动很大，我没有可靠的实时成交数据，不能直接报数字。建议用官方或主流平台查具体小区的近期成交。"
			return types.Structured{
				FinalText: text,
				Facts: []string{
					"同一城市不同板块的价格差异往往超过整体涨跌幅",
					"挂牌价和实际成交价通常存在明显差距",
				},
				NextActions: []types.NextAction{
					{Type: "guide", Text: "在主流房产平台查目标小区的近期成交记录"},
					{Type: "rephrase", Text: "告诉我具体城市和区域，我帮你整理查询思路"},
				},
			}
		},
	},
	{
		name:   "canned:advice",
		tokens: []string{"怎么办", "该不该", "如何选择", "给点建议", "advice", "should i"},
		build: func() types.Structured {
			text := "这类问题没有标准答案。把目标、约束和可选项列出来逐项对比，通常比凭感觉决定更可靠。"
			return types.Structured{
				FinalText: text,
				Facts: []string{
					"先写下最在意的两三个标准，再给每个选项打分",
					"可逆的决定可以快做，难以回头的决定值得多花时间",
				},
				NextActions: []types.NextAction{
					{Type: "guide", Text: "列出所有选项和各自的利弊"},
					{Type: "rephrase", Text: "告诉我具体在纠结什么，我帮你拆解"},
				},
			}
		},
	},
	{
		name:   "canned:local_business",
		tokens: []string{"附近", "营业时间", "几点开门", "几点关门", "nearby", "open hours"},
		build: func() types.Structured {
			text := "商家的营业时间经常调整，我没有可靠的实时数据。建议直接在地图应用里查该商家页面，或打电话确认。"
			return types.Structured{
				FinalText: text,
				Facts: []string{
					"地图应用的商家页面通常标注了节假日营业时间",
					"高峰时段部分商家会限流或提前截单",
				},
				NextActions: []types.NextAction{
					{Type: "guide", Text: "在地图应用里搜索该商家查看营业时间"},
					{Type: "guide", Text: "拨打商家电话确认"},
					{Type: "rephrase", Text: "告诉我具体商家名称和城市"},
				},
			}
		},
	},
}

// cannedAnswer checks the canned branches in order and renders the first
// match.
func cannedAnswer(text string) (types.Structured, string, bool) {
	lower := strings.ToLower(text)
	for _, b := range cannedBranches {
		for _, tok := range b.tokens {
			if strings.Contains(lower, tok) {
				return b.build(), b.name, true
			}
		}
	}
	return types.Structured{}, "", false
}
