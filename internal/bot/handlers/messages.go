package handlers

import "fmt"

// User-facing script text. The funnel audience is Russian-speaking.
const (
	MsgStart = "👋 Добро пожаловать!\n\nДля начала работы введите email, который вы указывали при покупке курса."

	MsgInvalidEmail  = "❌ Это не похоже на email. Проверьте адрес и отправьте еще раз."
	MsgEmailNotFound = "❌ Такой email не найден. Убедитесь, что вводите адрес, указанный при покупке."
	MsgRegistered    = "✅ Отлично, вы зарегистрированы!"

	MsgVideoSent    = "🎬 Посмотрите первый урок и нажмите кнопку ниже, когда закончите."
	MsgVideoWatched = "🎉 Отлично! Двигаемся дальше."

	MsgChannelQuestion          = "📢 У вас уже есть телеграм-канал?"
	MsgChannelCreationIntro     = "Сейчас создадим канал. Посмотрите короткое видео."
	MsgChannelCreationSteps     = "1. Откройте меню Telegram → «Создать канал»\n2. Назовите канал\n3. Сделайте его публичным и придумайте ссылку"
	MsgChannelCreationConfirm   = "Когда канал будет готов, нажмите кнопку ниже."
	MsgChannelReady             = "🎉 Канал готов! Следующий урок:"
	MsgLearn3Options            = "Хотите, помогу составить описание канала, или едем дальше?"
	MsgHelpRequest              = "Расскажите о себе: чем занимаетесь, кому помогаете, какие у вас результаты. Можно текстом или голосовым сообщением."
	MsgProcessingHelp           = "⏳ Готовлю варианты описания..."
	MsgHelpError                = "❌ Не получилось подготовить варианты. Попробуйте рассказать о себе еще раз."
	MsgContinue                 = "🎉 Отлично! Переходим к следующему этапу!"
	MsgFillChannelIntro         = "Пора наполнить канал контентом. Посмотрите урок:"
	MsgLearn4Options            = "Могу написать для вас 5 постов. Или напишете сами?"
	MsgWriteMyself              = "💪 Отлично! Тогда переходим к публикации поста-знакомства."
	MsgStartCreatingPosts       = "🚀 Поехали! Я задам несколько вопросов по каждому посту."
	MsgProcessingPost           = "⏳ Пишу пост..."
	MsgPostError                = "❌ Не получилось сгенерировать пост. Давайте попробуем еще раз с первого вопроса."
	MsgAllPostsCompleted        = "🎉 Все 5 постов готовы! Опубликуйте их в канале."
	MsgRewritePost              = "🔄 Хорошо, давайте попробуем еще раз!"
	MsgPublishIntro             = "Теперь опубликуем пост-знакомство с кнопкой. Посмотрите урок:"
	MsgLearn5Options            = "Опубликуете сами или помочь?"
	MsgPublishMyself            = "💪 Отлично! Тогда двигаемся дальше."
	MsgRequestChannelLink       = "Пришлите ссылку на ваш канал (@название или t.me/название)."
	MsgNotAChannel              = "❌ Это не похоже на канал. Проверьте ссылку и пришлите еще раз."
	MsgAddBotAdmin              = "Добавьте бота администратором канала с правом публикации, затем нажмите кнопку ниже."
	MsgBotNotAdmin              = "❌ Бот не является администратором канала. Добавьте бота и пришлите ссылку еще раз."
	MsgBotAdminOK               = "✅ Отлично! Бот добавлен администратором.\n\nТеперь ответьте на несколько вопросов для создания поста."
	MsgProcessingBluePost       = "⏳ Пишу пост-знакомство..."
	MsgBluePostError            = "❌ Не получилось сгенерировать пост. Давайте начнем с первого вопроса."
	MsgChooseButtonAction       = "Куда будет вести кнопка под постом?"
	MsgNoUsername               = "❌ У вас не установлен username в Telegram. Установите его в настройках и нажмите кнопку еще раз."
	MsgButtonToDM               = "✅ Кнопка будет вести в ваши личные сообщения"
	MsgRequestWebsiteLink       = "Пришлите ссылку на ваш сайт."
	MsgWebsiteLinkSaved         = "✅ Ссылка сохранена"
	MsgChooseButtonText         = "Выберите текст кнопки:"
	MsgRequestCustomButtonText  = "Напишите свой текст кнопки."
	MsgButtonTextSaved          = "✅ Текст кнопки сохранен"
	MsgPreviewConfirm           = "Все верно?"
	MsgPreviewRestart           = "🔄 Хорошо, давайте создадим пост заново!"
	MsgPublishing               = "⏳ Публикую пост на канале..."
	MsgPostPublished            = "🎉 Пост опубликован и закреплен в канале!"
	MsgPublishError             = "❌ Ошибка при публикации поста. Попробуйте еще раз."
	MsgChannelReadyNeedAudience = "Канал готов, пора привлекать аудиторию. Посмотрите урок:"
	MsgLearn6Options            = "Напишете анонс сами или помочь?"
	MsgWriteAnonsMyself         = "💪 Отлично! Тогда переходим к продажам."
	MsgStartAnons               = "✅ Отлично! Давайте создадим анонс для вашего поста."
	MsgAnonsQuestion1           = "📝 О чем ваш пост?"
	MsgAnonsQuestion2           = "🔗 Пришлите ссылку на пост."
	MsgProcessingAnons          = "⏳ Пишу анонс..."
	MsgAnonsError               = "❌ Не получилось сгенерировать анонс. Давайте попробуем еще раз."
	MsgReadyForSales            = "Пришло время продаж! Посмотрите урок:"
	MsgLearn7Options            = "Напишете продающий пост сами или помочь?"
	MsgWriteSalesMyself         = "💪 Отлично! Переходим к финальному шагу."
	MsgSalesQuestion1           = "📝 Что вы продаете?"
	MsgSalesQuestion2           = "📝 Какую проблему клиента решает ваш продукт?"
	MsgSalesQuestion3           = "📝 Какое действие должен сделать читатель?"
	MsgProcessingSales          = "⏳ Пишу продающий пост..."
	MsgSalesError               = "❌ Не получилось сгенерировать пост. Давайте попробуем еще раз."
	MsgRewriteSales             = "🔄 Отлично! Давайте переработаем пост. Ответьте на вопросы еще раз."
	MsgToFinalStep              = "✅ Отлично! Переходим к финальному шагу."
	MsgFinal1                   = "🎉 Поздравляем, вы прошли весь путь!"
	MsgFinal2                   = "Ваш канал наполнен, пост-знакомство опубликован, анонс и продающий пост готовы."
	MsgFinal3                   = "Продолжайте публиковать контент регулярно. Успехов!"

	MsgTranscribing      = "🎤 Обрабатываю голосовое сообщение..."
	MsgTranscribeFailed  = "❌ Не удалось распознать голосовое сообщение. Попробуйте еще раз или отправьте текстом."
	MsgAlreadyRegistered = "Вы уже зарегистрированы в системе!"
	MsgGenericError      = "Произошла ошибка. Попробуйте позже"
)

// Blue button questions, asked in order.
var blueQuestions = [...]string{
	"📝 Как вас зовут и чем вы занимаетесь?",
	"📝 Кому вы помогаете и с чем?",
	"📝 Какие у вас главные результаты или кейсы?",
	"📝 Почему вам можно доверять?",
	"📝 Что человек получит, подписавшись на канал?",
}

// Button labels.
const (
	BtnVideoWatched      = "✅ Я посмотрел(а) видео"
	BtnChannelCreated    = "Канал создан, едем дальше"
	BtnNeedCreateChannel = "Нужно создать"
	BtnNeedHelp          = "Нужна помощь"
	BtnContinue          = "Едем дальше"
	BtnWritePosts        = "Напиши мне посты"
	BtnWriteMyself       = "Напишу сам"
	BtnRewritePost       = "Переписать"
	BtnNextPost          = "Написать следующий пост"
	BtnPublishMyself     = "Опубликую сам"
	BtnHelpPublish       = "Помоги опубликовать"
	BtnBotAdded          = "Бот добавлен"
	BtnSkipLink          = "Пропустить"
	BtnButtonToDM        = "В личные сообщения"
	BtnButtonToWebsite   = "На сайт"
	BtnPostOK            = "Да, публикуем"
	BtnPostNo            = "Нет, заново"
	BtnWriteAnonsMyself  = "Напишу анонс сам"
	BtnHelpWriteAnons    = "Напиши анонс за меня"
	BtnWriteSalesMyself  = "Напишу сам"
	BtnHelpWriteSales    = "Напиши за меня"
	BtnRewriteSales      = "Переписать"
	BtnToFinalStep       = "К финальному шагу"
)

// Preset button-text choices for the published post.
var buttonTextChoices = map[string]string{
	"button_text_zhm":     "ЖМИ СЮДА",
	"button_text_napisat": "НАПИСАТЬ МНЕ",
	"button_text_zapis":   "ЗАПИСАТЬСЯ",
	"button_text_skidka":  "ЗАБРАТЬ СКИДКУ",
	"button_text_help":    "НУЖНА ПОМОЩЬ",
}

// ReminderMessage returns the nudge text for the given sequence number.
func ReminderMessage(sequence int) string {
	switch sequence {
	case 1:
		return "👋 Напоминаем: вас ждет первый урок. Посмотрите видео и нажмите кнопку!"
	case 2:
		return "⏰ Видео все еще ждет вас. Это займет всего несколько минут!"
	default:
		return "📌 Последнее напоминание: посмотрите первый урок, чтобы продолжить курс."
	}
}

func postTopicMessage(postNumber int, topic string) string {
	return fmt.Sprintf("📝 <b>Пост %d из 5</b>\n\nТема: %s", postNumber, topic)
}

func postQuestionMessage(questionNumber int, question string) string {
	return fmt.Sprintf("Вопрос %d: %s", questionNumber, question)
}

func postResultMessage(postText string) string {
	return fmt.Sprintf("✅ Готово! Вот ваш пост:\n\n%s", postText)
}

func postResultFinalMessage(postText string) string {
	return fmt.Sprintf("✅ Финальный вариант поста:\n\n%s", postText)
}

func nextPostMessage(next int) string {
	return fmt.Sprintf("✅ Отлично! Переходим к посту %d из 5", next)
}

func helpVariantsMessage(response string) string {
	return fmt.Sprintf("✅ Вот варианты описания:\n\n%s", response)
}

func bluePostReadyMessage(postText string) string {
	return fmt.Sprintf("✅ Пост-знакомство готов:\n\n%s", postText)
}

func bestLinksIntroMessage() string {
	return "🔗 Пришлите ссылки на ваши лучшие посты (до 5). Любую можно пропустить."
}

func bestLinkPrompt(linkNumber int) string {
	return fmt.Sprintf("🔗 <b>Ссылка %d из 5:</b>", linkNumber)
}

func previewMessage(postText string) string {
	return fmt.Sprintf("👀 Так пост будет выглядеть в канале:\n\n%s", postText)
}

func anonsReadyMessage(anonsText string) string {
	return fmt.Sprintf("✅ Анонс готов:\n\n%s", anonsText)
}

func salesReadyMessage(salesText string) string {
	return fmt.Sprintf("✅ Продающий пост готов:\n\n%s", salesText)
}

func salesRewrittenMessage(salesText string) string {
	return fmt.Sprintf("✅ Переработанный вариант:\n\n%s", salesText)
}
