package restapi

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the swap-flow endpoints onto the router.
func RegisterRoutes(router *gin.Engine, handler *SwapHandler) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/networks", handler.GetNetworksHandler)
		v1.GET("/networks/:chainId/tokens", handler.GetNetworkTokensHandler)
		v1.GET("/prices", handler.GetPricesHandler)
		v1.POST("/quotes", handler.PostQuoteHandler)
		v1.POST("/swaps", handler.PostSwapHandler)
		v1.GET("/swaps/:hash", handler.GetSwapHandler)
		v1.GET("/session", handler.GetSessionHandler)
		v1.POST("/session/disconnect", handler.PostDisconnectHandler)
		v1.GET("/notifications", handler.GetNotificationsHandler)
		v1.DELETE("/notifications/:id", handler.DeleteNotificationHandler)
	}
}
