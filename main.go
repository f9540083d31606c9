package main

import (
	"flag"
	"fmt"

	"github.com/ninja0404/token-radar/internal/app"
	"github.com/ninja0404/token-radar/pkg/utils"
)

func main() {
	configPath := flag.String("config", utils.ConfigFilePath("./config/config.yaml"), "配置文件路径")
	flag.Parse()

	application := app.New()
	if err := application.Start(*configPath); err != nil {
		fmt.Printf("应用启动失败: %v\n", err)
		return
	}
}
