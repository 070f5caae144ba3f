package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(func(_ *config.Config, db *gorm.DB) error {
			if err := repository.Migrate(db); err != nil {
				return err
			}
			logger.Info("schema migrated")
			return nil
		})
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create [slug] [title]",
	Short: "Create a group",
	Args:  cobra.ExactArgs(2),
	RunE:  groupCreate,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE:  userCreate,
}

var (
	groupDescription string
	userEmail        string
	userPassword     string
	userFirstName    string
	userLastName     string
)

func init() {
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "group description")
	groupCmd.AddCommand(groupCreateCmd)

	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password")
	userCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "first name")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "last name")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}

// withDB 初始化配置与数据库连接并在 fn 返回后关闭
func withDB(fn func(cfg *config.Config, db *gorm.DB) error) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	return fn(cfg, db)
}

func groupCreate(cmd *cobra.Command, args []string) error {
	return withDB(func(_ *config.Config, db *gorm.DB) error {
		groups := service.NewGroupService(repository.NewGroupRepository(db))
		g, err := groups.Create(cmd.Context(), args[1], args[0], groupDescription)
		if err != nil {
			return err
		}
		logger.Info("group created", zap.Uint("id", g.ID), zap.String("slug", g.Slug))
		return nil
	})
}

func userCreate(cmd *cobra.Command, args []string) error {
	return withDB(func(cfg *config.Config, db *gorm.DB) error {
		users := service.NewUserService(repository.NewUserRepository(db), cfg.Auth.BcryptCost)
		u, err := users.Register(cmd.Context(), &service.RegisterInput{
			Username:  args[0],
			Email:     userEmail,
			FirstName: userFirstName,
			LastName:  userLastName,
			Password:  userPassword,
		})
		if err != nil {
			return err
		}
		logger.Info("user created", zap.Uint("id", u.ID), zap.String("username", u.Username))
		return nil
	})
}
