package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// 控制台配色
var (
	colorSuccess = color.New(color.FgGreen)
	colorWarn    = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed)
	colorInfo    = color.New(color.FgCyan)
	colorBold    = color.New(color.Bold)
)

// ErrNoInput 输入流已结束
var ErrNoInput = errors.New("没有更多输入")

// Console 交互式控制台
// 所有输入读取都经过同一个bufio.Reader, 调用方需保证同一时刻只有一个提问
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsole 创建控制台
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask 输出提示并读取一行, 返回去除首尾空白的内容
func (c *Console) Ask(prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	colorBold.Fprint(c.out, prompt)

	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("读取输入失败: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm 提问并判断回答是否为肯定 (yes/y, 不区分大小写)
func (c *Console) Confirm(question string) (bool, error) {
	answer, err := c.Ask(question)
	if err != nil {
		return false, err
	}
	return IsAffirmative(answer), nil
}

// IsAffirmative 判断回答是否为肯定
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}

// Success 输出成功信息
func (c *Console) Success(format string, args ...interface{}) {
	c.println(colorSuccess, "✓", format, args...)
}

// Warn 输出警告信息
func (c *Console) Warn(format string, args ...interface{}) {
	c.println(colorWarn, "⚠", format, args...)
}

// Error 输出错误信息
func (c *Console) Error(format string, args ...interface{}) {
	c.println(colorError, "✗", format, args...)
}

// Info 输出提示信息
func (c *Console) Info(format string, args ...interface{}) {
	c.println(colorInfo, "ℹ", format, args...)
}

// Println 输出普通文本
func (c *Console) Println(a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

// println 输出带彩色前缀的一行
func (c *Console) println(prefixColor *color.Color, prefix, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", prefixColor.Sprint(prefix), fmt.Sprintf(format, args...))
}
