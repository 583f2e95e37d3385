package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvdashuaibi/eventpass/config"
	"github.com/lvdashuaibi/eventpass/internal/api/graph"
	"github.com/lvdashuaibi/eventpass/internal/api/rest"
	"github.com/lvdashuaibi/eventpass/internal/artifact"
	intkafka "github.com/lvdashuaibi/eventpass/internal/kafka"
	"github.com/lvdashuaibi/eventpass/internal/lock"
	"github.com/lvdashuaibi/eventpass/internal/repository"
	"github.com/lvdashuaibi/eventpass/internal/service"
)

const ConsumerWorkers = 4

var (
	configPath = flag.String("config", "config/config.yaml", "配置文件路径")
	instanceID = flag.Int("instance", 1, "实例ID，用于区分多个实例")
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("配置加载成功，当前实例ID: %d", *instanceID)

	// 创建主存储（MySQL）
	mysqlRepo, err := repository.NewMySQLRepository()
	if err != nil {
		log.Fatalf("初始化MySQL仓库失败: %v", err)
	}
	defer mysqlRepo.Close()
	log.Printf("MySQL仓库初始化成功")

	// 创建进程内后备存储，并组装双后端存储
	memoryRepo := repository.NewMemoryRepository()
	store := repository.NewFallbackRepository(mysqlRepo, memoryRepo)
	log.Printf("双后端票据存储初始化成功")

	// 创建Redis缓存
	redisRepo, err := repository.NewRedisRepository()
	if err != nil {
		log.Fatalf("初始化Redis仓库失败: %v", err)
	}
	defer redisRepo.Close()
	log.Printf("Redis仓库初始化成功")

	// 创建分布式锁
	checkinLock, err := lock.NewRedLock()
	if err != nil {
		log.Fatalf("初始化分布式锁失败: %v", err)
	}
	defer checkinLock.Close()
	log.Printf("分布式锁初始化成功")

	// 创建附件生成器
	artifacts, err := artifact.NewGenerator(cfg.Artifact.Dir, cfg.Artifact.QRSize)
	if err != nil {
		log.Fatalf("初始化附件生成器失败: %v", err)
	}
	log.Printf("附件生成器初始化成功，目录: %s", cfg.Artifact.Dir)

	// 创建Kafka生产者
	producer, err := intkafka.NewProducer()
	if err != nil {
		log.Fatalf("初始化Kafka生产者失败: %v", err)
	}
	defer producer.Close()
	log.Printf("Kafka生产者初始化成功")

	// 创建Kafka消费者
	consumer, err := intkafka.NewConsumer(ConsumerWorkers)
	if err != nil {
		log.Fatalf("初始化Kafka消费者失败: %v", err)
	}
	defer consumer.Stop()
	log.Printf("Kafka消费者初始化成功")

	// 创建票据服务
	ticketService := service.NewTicketService(store, redisRepo, artifacts, checkinLock, producer, mysqlRepo, *instanceID)
	log.Printf("票据服务初始化成功")

	// 启动Kafka消费者，落检票审计日志
	consumer.StartConsuming(ticketService.ProcessCheckinEvent)
	log.Printf("Kafka消费者已启动")

	// 创建REST服务器并挂载GraphQL端点
	restServer := rest.NewServer(ticketService)
	graphqlServer := graph.NewGraphQLServer(ticketService)
	restServer.Handle(http.MethodPost, cfg.GraphQL.Path, graphqlServer.Handler())
	restServer.Handle(http.MethodGet, "/playground", graphqlServer.PlaygroundHandler())
	log.Printf("API服务初始化成功")

	// 计算端口，支持多实例
	serverPort := cfg.Server.Port + *instanceID - 1

	// 启动HTTP服务器(异步)
	go func() {
		if err := restServer.Start(serverPort); err != nil {
			log.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	log.Printf("EventPass 系统 (实例 %d) 已启动，服务地址: http://localhost:%d", *instanceID, serverPort)

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务...")
}
