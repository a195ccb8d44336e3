package controller

import (
	"formflow_backend/internal/service"
	"formflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttachmentController struct {
	StorageService *service.StorageService
}

func NewAttachmentController(storageService *service.StorageService) *AttachmentController {
	return &AttachmentController{StorageService: storageService}
}

// Upload godoc
// @Summary 上传附件
// @Description 保存文件并返回票据，票据作为文件类问题的答案值提交
// @Tags 附件
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "文件"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "文件类型不允许"
// @Router /api/attachments [post]
func (c *AttachmentController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	token, err := c.StorageService.UploadAttachment(ctx.Request.Context(), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, gin.H{
		"token": token,
		"url":   c.StorageService.AttachmentURL(token),
	})
}

// Delete godoc
// @Summary 删除附件
// @Description 按上传返回的票据删除文件，票据不存在时视为已删除
// @Tags 附件
// @Produce  json
// @Param   token query string true "附件票据"
// @Success 200 {object} util.Response
// @Router /api/attachments [delete]
func (c *AttachmentController) Delete(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		util.BadRequest(ctx, "missing token")
		return
	}
	if err := c.StorageService.DeleteAttachment(ctx.Request.Context(), token); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
