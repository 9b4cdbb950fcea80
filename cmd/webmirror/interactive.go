package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/webmirror/internal/models"
	"github.com/RecoveryAshes/webmirror/internal/utils"
)

// errShowHelp 用户在交互模式输入了help
var errShowHelp = errors.New("显示帮助")

// interactiveTarget 交互式读取入口URL和输出目录
// 目录留空时使用defaultDir
func interactiveTarget(console *utils.Console, defaultDir string) (string, string, error) {
	console.Println("欢迎使用 webmirror 网站镜像工具!")
	console.Println("输入 'help' 查看说明, 或直接回车开始.")

	command, err := console.Ask("> ")
	if err != nil && !errors.Is(err, utils.ErrNoInput) {
		return "", "", err
	}
	if strings.EqualFold(command, "help") {
		return "", "", errShowHelp
	}

	seed, err := console.Ask("请输入入口URL: ")
	if err != nil {
		return "", "", fmt.Errorf("读取入口URL失败: %w", err)
	}
	if err := models.ValidateURL(seed); err != nil {
		return "", "", fmt.Errorf("无效的入口URL: %w", err)
	}

	dir, err := console.Ask(fmt.Sprintf("请输入保存目录 [%s]: ", defaultDir))
	if err != nil && !errors.Is(err, utils.ErrNoInput) {
		return "", "", err
	}
	if dir == "" {
		dir = defaultDir
	}
	return seed, dir, nil
}
